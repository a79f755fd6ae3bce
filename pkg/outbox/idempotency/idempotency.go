// Package idempotency keeps Pub/Sub consumers from applying the same outbox
// event twice.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/roorreach/marketplace-backend/pkg/redis"
)

// Ledger remembers which events each consumer has claimed. Entries live at
// rr:idempotency:evt:<consumer>:<event_id> and hold the claiming instance id.
type Ledger struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	owner string
}

// NewLedger keeps claims for ttl; zero keeps them until evicted. owner is
// recorded on every claim so a duplicate can be traced to the first handler.
func NewLedger(store redis.IdempotencyStore, ttl time.Duration, owner string) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if owner == "" {
		owner = "unknown"
	}
	return &Ledger{store: store, ttl: ttl, owner: owner}, nil
}

// Claim reserves eventID for consumer. It reports false when an earlier
// delivery already holds the claim.
func (l *Ledger) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := l.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	return l.store.SetNX(ctx, key, l.owner, l.ttl)
}

// Release drops a claim so the next delivery of eventID is handled again.
// Consumers call it when handling fails after a successful Claim.
func (l *Ledger) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := l.key(consumer, eventID)
	if err != nil {
		return err
	}
	return l.store.Del(ctx, key)
}

// Holder returns the instance that claimed eventID, or "" when unclaimed.
func (l *Ledger) Holder(ctx context.Context, consumer string, eventID uuid.UUID) (string, error) {
	key, err := l.key(consumer, eventID)
	if err != nil {
		return "", err
	}
	holder, err := l.store.Get(ctx, key)
	if redis.IsMiss(err) {
		return "", nil
	}
	return holder, err
}

func (l *Ledger) key(consumer string, eventID uuid.UUID) (string, error) {
	switch {
	case consumer == "":
		return "", errors.New("consumer name is required")
	case eventID == uuid.Nil:
		return "", errors.New("event id is required")
	}
	return l.store.IdempotencyKey("evt:"+consumer, eventID.String()), nil
}
