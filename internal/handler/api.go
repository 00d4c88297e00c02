package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/virtualvinyl/vinyl-server-go/internal/audit"
	apperrors "github.com/virtualvinyl/vinyl-server-go/internal/errors"
	"github.com/virtualvinyl/vinyl-server-go/internal/httputil"
	"github.com/virtualvinyl/vinyl-server-go/internal/middleware"
	"github.com/virtualvinyl/vinyl-server-go/internal/model"
	"github.com/virtualvinyl/vinyl-server-go/internal/service"
)

const LogoutMessage = "Logged out successfully"

// APIHandler serves the JSON endpoints under /api. Every handler reads the
// session id placed in the context by middleware.SessionMiddleware.
type APIHandler struct {
	authService     *service.AuthService
	catalogService  *service.CatalogService
	sessionService  *service.SessionService
	playlistService *service.PlaylistService
	cookieSecure    bool
}

func NewAPIHandler(
	authService *service.AuthService,
	catalogService *service.CatalogService,
	sessionService *service.SessionService,
	playlistService *service.PlaylistService,
	cookieSecure bool,
) *APIHandler {
	return &APIHandler{
		authService:     authService,
		catalogService:  catalogService,
		sessionService:  sessionService,
		playlistService: playlistService,
		cookieSecure:    cookieSecure,
	}
}

func (h *APIHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/auth-status", h.AuthStatus)
	r.Post("/logout", h.Logout)

	r.Get("/user", h.User)
	r.Get("/search", h.Search)
	r.Get("/top-tracks", h.TopTracks)

	r.Get("/selection", h.GetSelection)
	r.Post("/selection/toggle", h.ToggleSelection)
	r.Delete("/selection", h.ClearSelection)

	r.Post("/create-playlist", h.CreatePlaylist)
	r.Get("/playlists", h.ListPlaylists)

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	return r
}

func (h *APIHandler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	authenticated := h.authService.Status(r.Context(), middleware.GetSessionID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
}

func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	if sessionID != "" {
		h.authService.Logout(r.Context(), sessionID)
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout, SessionID: sessionID})
	}

	middleware.ClearSessionCookie(w, h.cookieSecure)
	writeJSON(w, http.StatusOK, map[string]string{"message": LogoutMessage})
}

func (h *APIHandler) User(w http.ResponseWriter, r *http.Request) {
	user, err := h.catalogService.Profile(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if user.Raw != nil {
		writeJSON(w, http.StatusOK, user.Raw)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":           user.ID,
		"display_name": user.DisplayName,
	})
}

// Search passes the provider's search payload through unchanged.
func (h *APIHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	result, err := h.catalogService.Search(r.Context(), middleware.GetSessionID(r.Context()), query.Get("q"), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if result.Raw != nil {
		writeJSON(w, http.StatusOK, result.Raw)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": result.Tracks})
}

func (h *APIHandler) TopTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.catalogService.TopTracks(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if tracks == nil {
		tracks = []model.Track{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

func (h *APIHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionService.Selection(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type toggleRequest struct {
	Track model.Track `json:"track"`
}

type toggleResponse struct {
	*service.SelectionView
	Selected bool `json:"selected"`
}

func (h *APIHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeBodyError(w, r, sessionID)
		return
	}

	view, selected, err := h.sessionService.Toggle(r.Context(), sessionID, req.Track)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{SelectionView: view, Selected: selected})
}

func (h *APIHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionService.Clear(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type createPlaylistRequest struct {
	Name string `json:"name"`
	// Absent means the server-side selection is used.
	TrackURIs []string `json:"track_uris"`
}

type createPlaylistResponse struct {
	PlaylistID  string `json:"playlist_id"`
	PlaylistURL string `json:"playlist_url"`
	Message     string `json:"message"`
}

func (h *APIHandler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	var req createPlaylistRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		h.writeBodyError(w, r, sessionID)
		return
	}

	playlist, err := h.playlistService.Assemble(r.Context(), sessionID, service.AssembleRequest{
		Name:      req.Name,
		TrackRefs: req.TrackURIs,
	})
	if err != nil {
		if code := apperrors.GetCode(err); code != apperrors.ErrCodeNotAuthenticated && code != apperrors.ErrCodeInvalidSelection {
			audit.LogFromRequest(r, audit.Event{
				Type:      audit.EventPlaylistFailure,
				SessionID: sessionID,
				Details:   map[string]any{"code": string(code)},
			})
		}
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventPlaylistCreate,
		SessionID: sessionID,
		Details:   map[string]any{"playlist_id": playlist.ID},
	})

	writeJSON(w, http.StatusOK, createPlaylistResponse{
		PlaylistID:  playlist.ID,
		PlaylistURL: playlist.URL,
		Message:     service.PlaylistCreatedMessage,
	})
}

func (h *APIHandler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	records, err := h.playlistService.History(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": records})
}

// writeBodyError reports an unreadable body, unless the caller is not signed
// in, which takes precedence.
func (h *APIHandler) writeBodyError(w http.ResponseWriter, r *http.Request, sessionID string) {
	if !h.authService.Status(r.Context(), sessionID) {
		httputil.WriteError(w, apperrors.NotAuthenticated())
		return
	}
	httputil.WriteError(w, apperrors.ValidationError("Invalid request body"))
}
