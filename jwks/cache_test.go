package jwks

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	signet "github.com/signetauth/signet"
)

func testKeySet(t *testing.T) (jose.JSONWebKeySet, []byte) {
	t.Helper()

	sigKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	encKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	set := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{
		{Key: &sigKey.PublicKey, KeyID: "sig-1", Algorithm: "RS256", Use: "sig"},
		{Key: &encKey.PublicKey, KeyID: "enc-1", Algorithm: "RSA-OAEP-256", Use: "enc"},
	}}

	raw, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal key set: %v", err)
	}
	return set, raw
}

type switchableServer struct {
	mu   sync.Mutex
	fail bool
	body []byte
}

func (s *switchableServer) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	fail := s.fail
	body := s.body
	s.mu.Unlock()

	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (s *switchableServer) setFail(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

func TestCacheResolveKeysByKeyID(t *testing.T) {
	_, raw := testKeySet(t)
	handler := &switchableServer{body: raw}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	cache := NewCache(srv.URL, time.Hour, nil)

	keys, err := cache.ResolveKeys(context.Background(), signet.KeyRequest{KeyID: "sig-1", Algorithm: "RS256"})
	if err != nil {
		t.Fatalf("ResolveKeys failed: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %d", len(keys))
	}
	if keys[0].KeyID != "sig-1" {
		t.Fatalf("expected kid sig-1, got %q", keys[0].KeyID)
	}
	if keys[0].Algorithm != "RS256" {
		t.Fatalf("expected alg RS256, got %q", keys[0].Algorithm)
	}
	if _, ok := keys[0].Public.(*rsa.PublicKey); !ok {
		t.Fatalf("expected rsa public key, got %T", keys[0].Public)
	}
}

func TestCacheResolveKeysFiltersNonSignatureUse(t *testing.T) {
	_, raw := testKeySet(t)
	handler := &switchableServer{body: raw}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	cache := NewCache(srv.URL, time.Hour, nil)

	keys, err := cache.ResolveKeys(context.Background(), signet.KeyRequest{Algorithm: "RS256"})
	if err != nil {
		t.Fatalf("ResolveKeys failed: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected enc-use key filtered out, got %d keys", len(keys))
	}
	if keys[0].KeyID != "sig-1" {
		t.Fatalf("expected sig-1 to survive, got %q", keys[0].KeyID)
	}
}

func TestCacheResolveKeysUnknownKidEmpty(t *testing.T) {
	_, raw := testKeySet(t)
	handler := &switchableServer{body: raw}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	cache := NewCache(srv.URL, time.Hour, nil)

	keys, err := cache.ResolveKeys(context.Background(), signet.KeyRequest{KeyID: "nope"})
	if err != nil {
		t.Fatalf("ResolveKeys failed: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys for unknown kid, got %d", len(keys))
	}
}

func TestCacheServesCachedKeysWhenRefreshFails(t *testing.T) {
	_, raw := testKeySet(t)
	handler := &switchableServer{body: raw}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	cache := NewCache(srv.URL, time.Nanosecond, nil)

	if _, err := cache.ResolveKeys(context.Background(), signet.KeyRequest{KeyID: "sig-1"}); err != nil {
		t.Fatalf("initial ResolveKeys failed: %v", err)
	}

	handler.setFail(true)
	time.Sleep(5 * time.Millisecond)

	keys, err := cache.ResolveKeys(context.Background(), signet.KeyRequest{KeyID: "sig-1"})
	if err != nil {
		t.Fatalf("expected cached keys to serve, got error: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 cached key, got %d", len(keys))
	}
}

func TestCacheColdFetchFailureSurfaces(t *testing.T) {
	handler := &switchableServer{fail: true}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	cache := NewCache(srv.URL, time.Hour, nil)

	if _, err := cache.ResolveKeys(context.Background(), signet.KeyRequest{}); err == nil {
		t.Fatal("expected error for cold cache with failing endpoint")
	}
}

func TestCacheRefreshRejectsMalformedBody(t *testing.T) {
	handler := &switchableServer{body: []byte("{not json")}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	cache := NewCache(srv.URL, time.Hour, nil)

	if err := cache.Refresh(context.Background()); err == nil {
		t.Fatal("expected error for malformed key set body")
	}
}

func TestCacheAutoRefreshFetches(t *testing.T) {
	_, raw := testKeySet(t)
	handler := &switchableServer{body: raw}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	cache := NewCache(srv.URL, time.Hour, nil)
	defer cache.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cache.StartAutoRefresh(ctx, 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for cache.LastFetch().IsZero() {
		if time.Now().After(deadline) {
			t.Fatal("auto refresh never fetched")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLocalResolveAndUpdate(t *testing.T) {
	_, raw := testKeySet(t)

	local, err := NewLocal(raw)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	keys, err := local.ResolveKeys(context.Background(), signet.KeyRequest{KeyID: "sig-1"})
	if err != nil {
		t.Fatalf("ResolveKeys failed: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %d", len(keys))
	}

	if err := local.Update([]byte(`{"keys":[]}`)); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	keys, err = local.ResolveKeys(context.Background(), signet.KeyRequest{KeyID: "sig-1"})
	if err != nil {
		t.Fatalf("ResolveKeys after update failed: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected empty set after update, got %d keys", len(keys))
	}
}

func TestLocalRejectsMalformedInput(t *testing.T) {
	if _, err := NewLocal([]byte("nope")); err == nil {
		t.Fatal("expected error for malformed input")
	}
}
