package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStaticDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>arcade</html>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600))

	return dir
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	return rec
}

func TestRouter(t *testing.T) {
	router := NewRouter(newStaticDir(t), nil)

	t.Run("Ping", func(t *testing.T) {
		rec := get(t, router, "/ping")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", rec.Body.String())
	})

	t.Run("Health", func(t *testing.T) {
		rec := get(t, router, "/api/health")

		require.Equal(t, http.StatusOK, rec.Code)

		var resp healthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "OK", resp.Status)
		assert.NotEmpty(t, resp.Message)
		_, err := time.Parse(time.RFC3339, resp.Timestamp)
		assert.NoError(t, err)
	})

	t.Run("Static file", func(t *testing.T) {
		rec := get(t, router, "/app.js")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "console.log(1)", rec.Body.String())
	})

	t.Run("Unknown path falls back to the app", func(t *testing.T) {
		rec := get(t, router, "/games/tictactoe")

		assert.Equal(t, http.StatusOK, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "arcade")
	})

	t.Run("Relay is not mounted in static mode", func(t *testing.T) {
		rec := get(t, router, "/ws")

		assert.Contains(t, rec.Body.String(), "arcade")
	})
}

func TestRouter_Relay(t *testing.T) {
	relay := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := get(t, NewRouter(t.TempDir(), relay), "/ws")

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
