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

	"github.com/rohanjoseph/freshbasket-backend/api/responses"
	"github.com/rohanjoseph/freshbasket-backend/pkg/config"
	pkgerrors "github.com/rohanjoseph/freshbasket-backend/pkg/errors"
	"github.com/rohanjoseph/freshbasket-backend/pkg/logger"
	redisclient "github.com/rohanjoseph/freshbasket-backend/pkg/redis"
)

// Login and register bodies are a handful of fields; anything past this cap
// is not a payload the throttled endpoints would accept anyway.
const rateLimitBodyCap = 1 << 20

type rateCounter interface {
	Incr(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy names an auth surface and its per-window ceilings.
// A zero window or all-zero limits disables throttling for that surface.
type AuthRateLimitPolicy struct {
	Name       string
	Window     time.Duration
	IPLimit    int
	EmailLimit int
}

// LoginRateLimitPolicy maps the configured login ceilings onto a policy.
func LoginRateLimitPolicy(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		Name:       "login",
		Window:     cfg.LoginWindow,
		IPLimit:    cfg.LoginIPLimit,
		EmailLimit: cfg.LoginEmailLimit,
	}
}

// RegisterRateLimitPolicy maps the configured register ceilings onto a policy.
func RegisterRateLimitPolicy(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		Name:       "register",
		Window:     cfg.RegisterWindow,
		IPLimit:    cfg.RegisterIPLimit,
		EmailLimit: cfg.RegisterEmailLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.Window > 0 && (p.IPLimit > 0 || p.EmailLimit > 0)
}

func (p AuthRateLimitPolicy) surface() string {
	if name := strings.ToLower(strings.TrimSpace(p.Name)); name != "" {
		return name
	}
	return "auth"
}

// limitCheck is one counter to bump for a request: a scope ("ip" or
// "email"), the Redis key for it, and the ceiling the count may reach.
type limitCheck struct {
	scope   string
	subject string
	key     string
	limit   int
}

// AuthRateLimit throttles an auth surface on two dimensions: the caller's
// address and, when the body carries one, the target account's email. Emails
// are hashed before they become Redis keys so addresses never appear in the
// keyspace.
func AuthRateLimit(policy AuthRateLimitPolicy, counter rateCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || counter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			checks, err := policy.checksFor(r)
			if err != nil {
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeRemoteRead, err, "read request"))
				return
			}

			for _, check := range checks {
				count, err := counter.Incr(ctx, check.key, policy.Window)
				if err != nil {
					responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeRemoteRead, err, "rate limiting"))
					return
				}
				if count > int64(check.limit) {
					policy.block(ctx, logg, w, check, count)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// checksFor builds the counters this request must pass. Reading the email
// consumes the body, so it is rewound before the handler sees it.
func (p AuthRateLimitPolicy) checksFor(r *http.Request) ([]limitCheck, error) {
	var checks []limitCheck

	if p.IPLimit > 0 {
		if ip := clientIP(r); ip != "" {
			checks = append(checks, limitCheck{
				scope:   "ip",
				subject: ip,
				key:     redisclient.RateLimitKey("ip:"+p.surface(), ip),
				limit:   p.IPLimit,
			})
		}
	}

	if p.EmailLimit <= 0 {
		return checks, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, rateLimitBodyCap))
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if email := emailFromBody(body); email != "" {
		hash := hashEmail(email)
		checks = append(checks, limitCheck{
			scope:   "email",
			subject: hash,
			key:     redisclient.RateLimitKey("email:"+p.surface(), hash),
			limit:   p.EmailLimit,
		})
	}

	return checks, nil
}

func (p AuthRateLimitPolicy) block(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, check limitCheck, count int64) {
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"surface":  p.surface(),
			"scope":    check.scope,
			"subject":  check.subject,
			"attempts": count,
			"limit":    check.limit,
			"window":   p.Window.String(),
		})
		logg.Warn(logCtx, "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(p.Window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
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

func hashEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}
