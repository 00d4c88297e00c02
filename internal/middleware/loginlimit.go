package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/virtualvinyl/vinyl-server-go/internal/audit"
	apperrors "github.com/virtualvinyl/vinyl-server-go/internal/errors"
	"github.com/virtualvinyl/vinyl-server-go/internal/httputil"
)

const (
	DefaultLoginAttempts = 10
	loginWindowDuration  = time.Minute
	loginCleanupPeriod   = 5 * time.Minute
)

type loginAttempt struct {
	count       int
	windowStart time.Time
}

// LoginRateLimiter caps how many login flows one address can start per
// minute. Every /login allocates a session, so this bounds store growth.
type LoginRateLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*loginAttempt
	maxAttempts int
	lastCleanup time.Time
	now         func() time.Time
}

func NewLoginRateLimiter(maxAttempts int) *LoginRateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultLoginAttempts
	}
	return &LoginRateLimiter{
		attempts:    make(map[string]*loginAttempt),
		maxAttempts: maxAttempts,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (l *LoginRateLimiter) cleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < loginCleanupPeriod {
		return
	}
	l.lastCleanup = now

	for ip, attempt := range l.attempts {
		if now.Sub(attempt.windowStart) > loginWindowDuration {
			delete(l.attempts, ip)
		}
	}
}

func (l *LoginRateLimiter) isAllowed(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanup(now)

	attempt, exists := l.attempts[ip]
	if !exists || now.Sub(attempt.windowStart) > loginWindowDuration {
		l.attempts[ip] = &loginAttempt{count: 1, windowStart: now}
		return true
	}

	if attempt.count >= l.maxAttempts {
		return false
	}

	attempt.count++
	return true
}

func (l *LoginRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.isAllowed(clientIP(r)) {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Details: map[string]any{"path": r.URL.Path},
			})
			w.Header().Set("Retry-After", strconv.Itoa(int(loginWindowDuration.Seconds())))
			httputil.WriteError(w, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}
