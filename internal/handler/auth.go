package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/virtualvinyl/vinyl-server-go/internal/audit"
	apperrors "github.com/virtualvinyl/vinyl-server-go/internal/errors"
	"github.com/virtualvinyl/vinyl-server-go/internal/httputil"
	"github.com/virtualvinyl/vinyl-server-go/internal/middleware"
	"github.com/virtualvinyl/vinyl-server-go/internal/model"
	"github.com/virtualvinyl/vinyl-server-go/internal/service"
)

// AuthHandler serves the browser-facing half of the OAuth flow: the login
// redirect and the provider callback.
type AuthHandler struct {
	authService    *service.AuthService
	sessionTTL     time.Duration
	cookieSecure   bool
	appRedirectURL string
}

func NewAuthHandler(
	authService *service.AuthService,
	sessionTTL time.Duration,
	cookieSecure bool,
	appRedirectURL string,
) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		sessionTTL:     sessionTTL,
		cookieSecure:   cookieSecure,
		appRedirectURL: appRedirectURL,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	name := model.Provider(r.URL.Query().Get("provider"))

	result, err := h.authService.BeginLogin(r.Context(), name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventLoginStart,
		SessionID: result.SessionID,
		Provider:  string(result.Provider),
	})

	middleware.SetSessionCookie(w, result.SessionID, h.sessionTTL, h.cookieSecure)
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sessionID := middleware.GetSessionID(r.Context())

	if providerErr := query.Get("error"); providerErr != "" {
		log.Warn().Str("error", providerErr).Msg("authorization denied by provider")
	}

	session, err := h.authService.CompleteLogin(r.Context(), sessionID, query.Get("code"), query.Get("state"))
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:      audit.EventLoginFailure,
			SessionID: sessionID,
			Details:   map[string]any{"code": string(apperrors.GetCode(err))},
		})
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventLoginSuccess,
		SessionID: session.ID,
		Provider:  string(session.Provider),
	})

	middleware.SetSessionCookie(w, session.ID, h.sessionTTL, h.cookieSecure)
	http.Redirect(w, r, h.successURL(), http.StatusFound)
}

func (h *AuthHandler) successURL() string {
	u, err := url.Parse(h.appRedirectURL)
	if err != nil {
		return "/?auth=success"
	}
	q := u.Query()
	q.Set("auth", "success")
	u.RawQuery = q.Encode()
	return u.String()
}
