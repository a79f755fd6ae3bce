package idempotency

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values   map[string]string
	setNXErr error
	lastTTL  time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.setNXErr != nil {
		return false, f.setNXErr
	}
	f.lastTTL = ttl
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "rr:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestClaimIsGrantedOnce(t *testing.T) {
	store := newFakeStore()
	ledger, err := NewLedger(store, 24*time.Hour, "worker-1")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	ctx := context.Background()
	eventID := uuid.New()

	first, err := ledger.Claim(ctx, "user-notifications", eventID)
	if err != nil || !first {
		t.Fatalf("expected first claim to win, got %v %v", first, err)
	}
	second, err := ledger.Claim(ctx, "user-notifications", eventID)
	if err != nil || second {
		t.Fatalf("expected redelivery to lose the claim, got %v %v", second, err)
	}

	key := "rr:idempotency:evt:user-notifications:" + eventID.String()
	if store.values[key] != "worker-1" {
		t.Fatalf("expected claim owned by worker-1, got %q", store.values[key])
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl: %v", store.lastTTL)
	}

	other, err := ledger.Claim(ctx, "audit-log", eventID)
	if err != nil || !other {
		t.Fatalf("claims are per consumer, got %v %v", other, err)
	}
}

func TestReleaseAllowsReprocessing(t *testing.T) {
	ledger, err := NewLedger(newFakeStore(), time.Hour, "worker-1")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	ctx := context.Background()
	eventID := uuid.New()

	if _, err := ledger.Claim(ctx, "user-notifications", eventID); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := ledger.Release(ctx, "user-notifications", eventID); err != nil {
		t.Fatalf("Release: %v", err)
	}
	holder, err := ledger.Holder(ctx, "user-notifications", eventID)
	if err != nil || holder != "" {
		t.Fatalf("expected no holder after release, got %q %v", holder, err)
	}
	again, err := ledger.Claim(ctx, "user-notifications", eventID)
	if err != nil || !again {
		t.Fatalf("expected claim after release, got %v %v", again, err)
	}
}

func TestClaimValidatesInputsAndSurfacesStoreErrors(t *testing.T) {
	if _, err := NewLedger(nil, time.Hour, "w"); err == nil {
		t.Fatal("expected error without store")
	}
	if _, err := NewLedger(newFakeStore(), -time.Second, "w"); err == nil {
		t.Fatal("expected error for negative ttl")
	}

	store := newFakeStore()
	ledger, err := NewLedger(store, time.Hour, "")
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	if _, err := ledger.Claim(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected error without consumer")
	}
	if _, err := ledger.Claim(context.Background(), "user-notifications", uuid.Nil); err == nil {
		t.Fatal("expected error without event id")
	}

	store.setNXErr = errors.New("redis down")
	if _, err := ledger.Claim(context.Background(), "user-notifications", uuid.New()); err == nil {
		t.Fatal("expected store error")
	}
}
