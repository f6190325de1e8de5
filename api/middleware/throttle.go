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

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// maxThrottledBody caps how much of an auth payload is read to find the email.
const maxThrottledBody = 64 << 10

// HitCounter counts requests per key inside a fixed window.
type HitCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
	RateLimitKey(policy, subject string) string
}

// Throttle caps attempts against one auth endpoint, per client address and
// per account email. A zero limit disables that dimension.
type Throttle struct {
	Name     string
	Window   time.Duration
	PerIP    int64
	PerEmail int64
}

func LoginThrottle(cfg config.AuthRateLimitConfig) Throttle {
	return Throttle{Name: "login", Window: cfg.LoginWindow, PerIP: int64(cfg.LoginIPLimit), PerEmail: int64(cfg.LoginEmailLimit)}
}

func RegisterThrottle(cfg config.AuthRateLimitConfig) Throttle {
	return Throttle{Name: "register", Window: cfg.RegisterWindow, PerIP: int64(cfg.RegisterIPLimit), PerEmail: int64(cfg.RegisterEmailLimit)}
}

func (t Throttle) active() bool {
	return t.Window > 0 && (t.PerIP > 0 || t.PerEmail > 0)
}

// Middleware rejects requests over either limit with 429 and a Retry-After
// header. Counter failures surface as dependency errors.
func (t Throttle) Middleware(counter HitCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if counter == nil || !t.active() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if t.PerIP > 0 {
				if ip := remoteIP(r); ip != "" && !t.admit(ctx, counter, logg, w, "ip:"+ip, t.PerIP) {
					return
				}
			}

			if t.PerEmail > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxThrottledBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				if email := emailOf(body); email != "" && !t.admit(ctx, counter, logg, w, "email:"+email, t.PerEmail) {
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// admit records one hit for subject and writes the rejection when over limit.
func (t Throttle) admit(ctx context.Context, counter HitCounter, logg *logger.Logger, w http.ResponseWriter, subject string, limit int64) bool {
	hits, err := counter.Hit(ctx, counter.RateLimitKey(t.Name, subject), t.Window)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiter unavailable"))
		return false
	}
	if hits <= limit {
		return true
	}
	if logg != nil {
		dimension, _, _ := strings.Cut(subject, ":")
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"throttle":  t.Name,
			"dimension": dimension,
			"hits":      hits,
			"limit":     limit,
		}), "auth request throttled")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(t.Window.Round(time.Second)/time.Second)))
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
	return false
}

// remoteIP prefers the first valid forwarded address, then the socket peer.
func remoteIP(r *http.Request) string {
	forwarded := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	forwarded = append(forwarded, r.Header.Get("X-Real-IP"))
	for _, candidate := range forwarded {
		if ip := net.ParseIP(strings.TrimSpace(candidate)); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return ""
}

// emailOf returns a hash of the normalized email so raw addresses never
// reach Redis keys or logs.
func emailOf(body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:16])
}
