package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/virtualvinyl/vinyl-server-go/internal/httputil"
	"github.com/virtualvinyl/vinyl-server-go/internal/util"
)

type contextKey string

const SessionIDContextKey contextKey = "sessionID"

const SessionCookieName = "session_id"

// GetSessionID returns the session id carried by the request cookie, or ""
// when the request has none.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionIDContextKey).(string); ok {
		return id
	}
	return ""
}

// SessionMiddleware puts the caller's session id into the request context.
// It never rejects; whether the session is usable is up to the handler.
type SessionMiddleware struct{}

func NewSessionMiddleware() *SessionMiddleware {
	return &SessionMiddleware{}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := SessionIDFromRequest(r)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), SessionIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionIDFromRequest reads the session cookie. Values that are not
// well-formed session ids are ignored.
func SessionIDFromRequest(r *http.Request) string {
	header := strings.Join(r.Header.Values("Cookie"), "; ")
	id := httputil.ParseCookieHeader(header)[SessionCookieName]
	if !util.IsValidToken(id) {
		return ""
	}
	return id
}

func SetSessionCookie(w http.ResponseWriter, id string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the cookie immediately (Max-Age=0 on the wire).
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
