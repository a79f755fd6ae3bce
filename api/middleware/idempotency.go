package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/roorreach/marketplace-backend/api/responses"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/logger"
	pkgredis "github.com/roorreach/marketplace-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	// inFlightTTL bounds how long a crashed request can block its key.
	inFlightTTL = time.Minute
)

// IdempotencyPolicy configures replay protection for one route.
type IdempotencyPolicy struct {
	// Scope namespaces stored responses per kind of write.
	Scope string
	TTL   time.Duration
	// RequireKey rejects requests without an Idempotency-Key. Otherwise such
	// requests run unprotected.
	RequireKey bool
}

var (
	// CheckoutReplay guards order placement, which takes stock.
	CheckoutReplay = IdempotencyPolicy{Scope: "checkout", TTL: 7 * 24 * time.Hour, RequireKey: true}
	// CancelReplay guards buyer and seller cancellations, which restock.
	CancelReplay = IdempotencyPolicy{Scope: "order_cancel", TTL: 7 * 24 * time.Hour, RequireKey: true}
	// SubmitReplay guards reviews and seller applications. Both are already
	// unique per user, so the key is optional.
	SubmitReplay = IdempotencyPolicy{Scope: "submission", TTL: 24 * time.Hour}
)

type storedResponse struct {
	Fingerprint string `json:"fingerprint"`
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotent replays the first response for a repeated Idempotency-Key. The
// key is scoped to the caller and the policy; reusing it for a different
// method, path or body is rejected. Server errors are not remembered so the
// client can retry them.
func Idempotent(store pkgredis.IdempotencyStore, logg *logger.Logger, policy IdempotencyPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				if policy.RequireKey {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := fingerprintRequest(r, body)
			key := store.IdempotencyKey(policy.Scope+":"+UserIDFromContext(ctx), clientKey)

			reserved, err := save(ctx, store, key, storedResponse{Fingerprint: fingerprint, Pending: true}, inFlightTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !reserved {
				replay(ctx, logg, w, store, key, fingerprint)
				return
			}

			rec := &replayRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			remember(ctx, logg, store, key, policy.TTL, fingerprint, rec)
		})
	}
}

func replay(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, store pkgredis.IdempotencyStore, key, fingerprint string) {
	raw, err := store.Get(ctx, key)
	if pkgredis.IsMiss(err) {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "idempotent request expired, retry"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record"))
		return
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}

	switch {
	case stored.Fingerprint != fingerprint:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request"))
	case stored.Pending:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "a request with this Idempotency-Key is still in progress"))
	default:
		if stored.ContentType != "" {
			w.Header().Set("Content-Type", stored.ContentType)
		}
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(stored.Status)
		_, _ = w.Write(stored.Body)
	}
}

// remember swaps the in-flight reservation for the final response.
func remember(ctx context.Context, logg *logger.Logger, store pkgredis.IdempotencyStore, key string, ttl time.Duration, fingerprint string, rec *replayRecorder) {
	if err := store.Del(ctx, key); err != nil {
		logWarn(ctx, logg, "release idempotency reservation", err)
		return
	}
	status := rec.statusCode()
	if status >= http.StatusInternalServerError {
		return
	}
	_, err := save(ctx, store, key, storedResponse{
		Fingerprint: fingerprint,
		Status:      status,
		ContentType: rec.Header().Get("Content-Type"),
		Body:        rec.body.Bytes(),
	}, ttl)
	if err != nil {
		logWarn(ctx, logg, "persist idempotency record", err)
	}
}

func save(ctx context.Context, store pkgredis.IdempotencyStore, key string, record storedResponse, ttl time.Duration) (bool, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, string(payload), ttl)
}

func fingerprintRequest(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method + " " + r.URL.Path + "\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type replayRecorder struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *replayRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *replayRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *replayRecorder) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func logWarn(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil {
		return
	}
	logg.Warn(logg.WithField(ctx, "error", err.Error()), msg)
}
