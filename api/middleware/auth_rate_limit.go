package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/roorreach/marketplace-backend/api/responses"
	"github.com/roorreach/marketplace-backend/pkg/config"
	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
	"github.com/roorreach/marketplace-backend/pkg/logger"
)

// maxThrottledBody caps how much of an auth request is buffered to find the email.
const maxThrottledBody = 64 << 10

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// AuthThrottle limits attempts on one auth endpoint within a fixed window,
// counted separately per client IP and per submitted email. A zero limit
// turns that counter off.
type AuthThrottle struct {
	Name     string
	Window   time.Duration
	PerIP    int
	PerEmail int
}

// LoginThrottle and RegisterThrottle read their limits from configuration.
func LoginThrottle(cfg config.AuthRateLimitConfig) AuthThrottle {
	return AuthThrottle{Name: "login", Window: cfg.LoginWindow, PerIP: cfg.LoginIPLimit, PerEmail: cfg.LoginEmailLimit}
}

func RegisterThrottle(cfg config.AuthRateLimitConfig) AuthThrottle {
	return AuthThrottle{Name: "register", Window: cfg.RegisterWindow, PerIP: cfg.RegisterIPLimit, PerEmail: cfg.RegisterEmailLimit}
}

func (t AuthThrottle) active() bool {
	return t.Window > 0 && (t.PerIP > 0 || t.PerEmail > 0)
}

// bucket is one counter a request is charged against.
type bucket struct {
	kind    string
	subject string
	limit   int
}

func (t AuthThrottle) buckets(ip, email string) []bucket {
	name := strings.ToLower(strings.TrimSpace(t.Name))
	if name == "" {
		name = "auth"
	}
	var out []bucket
	if t.PerIP > 0 && ip != "" {
		out = append(out, bucket{kind: "ip", subject: "ip:" + name + ":" + ip, limit: t.PerIP})
	}
	if t.PerEmail > 0 && email != "" {
		sum := sha256.Sum256([]byte(email))
		out = append(out, bucket{kind: "email", subject: "email:" + name + ":" + hex.EncodeToString(sum[:]), limit: t.PerEmail})
	}
	return out
}

// AuthRateLimit rejects a request with 429 and Retry-After once any of its
// buckets is over the limit. Emails are hashed before they become keys.
func AuthRateLimit(throttle AuthThrottle, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !throttle.active() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var email string
			if throttle.PerEmail > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxThrottledBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				email = emailFromBody(body)
			}

			for _, b := range throttle.buckets(clientIP(r), email) {
				count, err := store.IncrWithTTL(ctx, store.RateLimitKey(b.subject), throttle.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(b.limit) {
					rejectThrottled(ctx, logg, w, throttle, b, count)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rejectThrottled(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, throttle AuthThrottle, b bucket, count int64) {
	retryAfter := int(throttle.Window.Seconds())
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"throttle": throttle.Name,
			"bucket":   b.kind,
			"attempts": count,
			"limit":    b.limit,
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	err := pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later").
		WithDetails(map[string]any{"retry_after_seconds": retryAfter})
	responses.WriteError(ctx, nil, w, err)
}

// clientIP takes the first parseable X-Forwarded-For hop, then X-Real-IP,
// then the socket address.
func clientIP(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func emailFromBody(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}
