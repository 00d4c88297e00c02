package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/virtualvinyl/vinyl-server-go/internal/httputil"
)

var errEmptyBody = errors.New("empty request body")

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

// decodeJSON reads a single JSON object and rejects trailing data.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}

// NotFound is the JSON 404 used for unknown API routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteErrorWithStatus(w, http.StatusNotFound, "Not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.WriteErrorWithStatus(w, http.StatusMethodNotAllowed, "Method not allowed")
}
