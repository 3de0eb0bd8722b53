// Package idempotency records which external events have already been
// processed so that redelivered webhooks are acknowledged without repeating
// their side effects.
package idempotency

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultTTL comfortably exceeds Stripe's three-day retry window.
const DefaultTTL = 72 * time.Hour

const keyNamespace = "loomworks"

// Store is the minimal key/value surface the guard needs.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// Key builds a namespaced ledger key.
func Key(scope, id string) string {
	return strings.Join([]string{keyNamespace, "idempotency", scope, id}, ":")
}

// Guard claims event ids in a Store.
type Guard struct {
	store Store
	scope string
	ttl   time.Duration
}

// NewGuard creates a guard for one event scope, e.g. "stripe".
func NewGuard(store Store, scope string, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{store: store, scope: scope, ttl: ttl}
}

// Claim marks eventID as processed. It returns false when the event was
// already claimed.
func (g *Guard) Claim(ctx context.Context, eventID string) (bool, error) {
	ok, err := g.store.SetNX(ctx, Key(g.scope, eventID), time.Now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		return false, fmt.Errorf("claim event %s: %w", eventID, err)
	}
	return ok, nil
}

// Release forgets eventID so a redelivery is processed again.
func (g *Guard) Release(ctx context.Context, eventID string) error {
	if err := g.store.Del(ctx, Key(g.scope, eventID)); err != nil {
		return fmt.Errorf("release event %s: %w", eventID, err)
	}
	return nil
}
