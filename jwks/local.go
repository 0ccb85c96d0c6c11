package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	jose "github.com/go-jose/go-jose/v4"
	signet "github.com/signetauth/signet"
)

// Local serves a fixed JSON Web Key Set as a [signet.KeySetResolver].
// Update swaps the whole set atomically, so a file watcher or admin
// endpoint can rotate keys without rebuilding the engine.
type Local struct {
	keys *jose.JSONWebKeySet
	mu   sync.RWMutex
}

// NewLocal creates a local key set from raw JWKS JSON.
func NewLocal(data []byte) (*Local, error) {
	set, err := parseKeySet(data)
	if err != nil {
		return nil, err
	}
	return &Local{keys: set}, nil
}

// NewLocalFromSet creates a local key set from an already-parsed set.
func NewLocalFromSet(set jose.JSONWebKeySet) *Local {
	return &Local{keys: &set}
}

// ResolveKeys implements [signet.KeySetResolver] over the fixed set.
func (l *Local) ResolveKeys(_ context.Context, req signet.KeyRequest) ([]signet.VerificationKey, error) {
	l.mu.RLock()
	set := l.keys
	l.mu.RUnlock()

	if set == nil {
		return nil, errors.New("no key set configured")
	}

	keys := set.Keys
	if req.KeyID != "" {
		keys = set.Key(req.KeyID)
	}
	return toVerificationKeys(keys), nil
}

// Update replaces the key set from raw JWKS JSON.
func (l *Local) Update(data []byte) error {
	set, err := parseKeySet(data)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.keys = set
	l.mu.Unlock()

	return nil
}

func parseKeySet(data []byte) (*jose.JSONWebKeySet, error) {
	var set jose.JSONWebKeySet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse key set: %w", err)
	}
	return &set, nil
}
