package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSPAHandler(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte("<!DOCTYPE html><html><body>Vinyl</body></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "styles.css"), []byte("body { color: black; }"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "assets"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "assets", "app.js"), []byte("console.log('spin');"), 0644))

	handler := NewSPAHandler(tmpDir)

	serve := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	t.Run("serves index.html for root path", func(t *testing.T) {
		rec := serve("/")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Vinyl")
	})

	t.Run("serves static files", func(t *testing.T) {
		rec := serve("/styles.css")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "color: black")
	})

	t.Run("serves nested files", func(t *testing.T) {
		rec := serve("/assets/app.js")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "console.log")
	})

	t.Run("falls back to index.html for client routes", func(t *testing.T) {
		rec := serve("/crate/today")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Vinyl")
	})

	t.Run("directories fall back to index.html", func(t *testing.T) {
		rec := serve("/assets")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Vinyl")
	})

	t.Run("api paths get a json 404", func(t *testing.T) {
		for _, path := range []string{"/api", "/api/", "/api/unknown"} {
			rec := serve(path)
			assert.Equal(t, http.StatusNotFound, rec.Code, path)
			assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String(), path)
		}
	})

	t.Run("parent segments stay inside the static dir", func(t *testing.T) {
		outside := filepath.Join(filepath.Dir(tmpDir), "secret.txt")
		require.NoError(t, os.WriteFile(outside, []byte("secret"), 0644))
		t.Cleanup(func() { os.Remove(outside) })

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.URL.Path = "/../secret.txt"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.NotContains(t, rec.Body.String(), "secret")
	})
}

func TestSPAHandler_NoIndexFile(t *testing.T) {
	handler := NewSPAHandler(t.TempDir())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
}
