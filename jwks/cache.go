package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	signet "github.com/signetauth/signet"
	"go.uber.org/zap"
)

// Cache fetches a remote JSON Web Key Set and serves it as a
// [signet.KeySetResolver], refreshing on TTL expiry.
type Cache struct {
	url        string
	keys       *jose.JSONWebKeySet
	mu         sync.RWMutex
	lastFetch  time.Time
	ttl        time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	stopCh     chan struct{}
	stopped    bool
}

// NewCache creates a JWKS cache for the given endpoint URL.
func NewCache(url string, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Cache{
		url: url,
		ttl: ttl,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// NewCacheWithClient creates a JWKS cache with a custom HTTP client.
func NewCacheWithClient(url string, ttl time.Duration, client *http.Client, logger *zap.Logger) *Cache {
	cache := NewCache(url, ttl, logger)
	if client != nil {
		cache.httpClient = client
	}
	return cache
}

// ResolveKeys implements [signet.KeySetResolver] over the cached key set.
// A stale or missing set triggers a refresh first; when the refresh fails
// and a previous set exists, the cached keys keep serving.
func (c *Cache) ResolveKeys(ctx context.Context, req signet.KeyRequest) ([]signet.VerificationKey, error) {
	set, err := c.keySet(ctx)
	if err != nil {
		return nil, err
	}

	keys := set.Keys
	if req.KeyID != "" {
		keys = set.Key(req.KeyID)
	}
	return toVerificationKeys(keys), nil
}

// keySet returns the live key set, refreshing when the cache is empty or
// past its TTL.
func (c *Cache) keySet(ctx context.Context) (*jose.JSONWebKeySet, error) {
	c.mu.RLock()
	keys := c.keys
	lastFetch := c.lastFetch
	c.mu.RUnlock()

	if keys == nil || time.Since(lastFetch) > c.ttl {
		if err := c.Refresh(ctx); err != nil {
			if keys == nil {
				return nil, fmt.Errorf("fetch key set: %w", err)
			}
			c.logger.Warn("key set refresh failed, serving cached keys",
				zap.Error(err),
				zap.Time("lastFetch", lastFetch),
			)
		}

		c.mu.RLock()
		keys = c.keys
		c.mu.RUnlock()
	}

	if keys == nil {
		return nil, errors.New("no key set available")
	}
	return keys, nil
}

// Refresh fetches the key set from the remote URL.
func (c *Cache) Refresh(ctx context.Context) error {
	c.logger.Debug("refreshing key set", zap.String("url", c.url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch key set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("key set endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024)) // 1MB limit
	if err != nil {
		return fmt.Errorf("read key set response: %w", err)
	}

	var set jose.JSONWebKeySet
	if err := json.Unmarshal(body, &set); err != nil {
		return fmt.Errorf("parse key set: %w", err)
	}

	c.mu.Lock()
	c.keys = &set
	c.lastFetch = time.Now()
	c.mu.Unlock()

	c.logger.Info("key set refreshed",
		zap.String("url", c.url),
		zap.Int("keyCount", len(set.Keys)),
	)

	return nil
}

// StartAutoRefresh starts background refresh at the specified interval.
// Interval zero or below defaults to half the TTL.
func (c *Cache) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = c.ttl / 2
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Initial fetch
		if err := c.Refresh(ctx); err != nil {
			c.logger.Error("initial key set fetch failed", zap.Error(err))
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			case <-ticker.C:
				if err := c.Refresh(ctx); err != nil {
					c.logger.Error("key set refresh failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop stops the auto-refresh goroutine.
func (c *Cache) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stopped {
		close(c.stopCh)
		c.stopped = true
	}
}

// LastFetch returns the time of the last successful fetch.
func (c *Cache) LastFetch() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastFetch
}

// URL returns the JWKS endpoint URL.
func (c *Cache) URL() string {
	return c.url
}

// toVerificationKeys maps JWKS entries to resolver candidates. Entries
// that are not public signature keys are dropped: symmetric and private
// material never flows out of a key set, and enc-use keys never verify.
func toVerificationKeys(keys []jose.JSONWebKey) []signet.VerificationKey {
	out := make([]signet.VerificationKey, 0, len(keys))
	for _, k := range keys {
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		if !k.Valid() || !k.IsPublic() {
			continue
		}
		out = append(out, signet.VerificationKey{
			KeyID:     k.KeyID,
			Algorithm: k.Algorithm,
			Public:    k.Key,
		})
	}
	return out
}
