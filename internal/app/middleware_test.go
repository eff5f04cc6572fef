package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuguard/menuguard/internal/shared"
	_ "github.com/menuguard/menuguard/testing"
)

func newStackServer(t *testing.T) *chi.Mux {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := MiddlewareConfig{
		Logger:         logger,
		SessionManager: shared.NewSessionManager(client, "menuguard_session", "secret", time.Hour, false),
		CSRFManager:    shared.NewCSRFManager("csrf-secret"),
	}

	r := chi.NewRouter()
	r.Use(MiddlewareStack(cfg)...)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Put("/roles/reviewer", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("updated"))
	})
	return r
}

func TestCSRFTokenIssuedOnSafeMethods(t *testing.T) {
	srv := newStackServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(shared.CSRFHeader), "safe requests issue the token")
	require.Len(t, rec.Result().Cookies(), 1)
}

func TestCSRFGetThenPutFlow(t *testing.T) {
	srv := newStackServer(t)

	get := httptest.NewRecorder()
	srv.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, get.Code)

	token := get.Header().Get(shared.CSRFHeader)
	require.NotEmpty(t, token)
	cookie := get.Result().Cookies()[0]

	put := httptest.NewRequest(http.MethodPut, "/roles/reviewer", strings.NewReader(`{}`))
	put.AddCookie(cookie)
	put.Header.Set(shared.CSRFHeader, token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, put)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "updated", rec.Body.String())
}

func TestCSRFMutationWithoutTokenRefused(t *testing.T) {
	srv := newStackServer(t)

	get := httptest.NewRecorder()
	srv.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := get.Result().Cookies()[0]

	put := httptest.NewRequest(http.MethodPut, "/roles/reviewer", strings.NewReader(`{}`))
	put.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, put)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	forged := httptest.NewRequest(http.MethodPut, "/roles/reviewer", strings.NewReader(`{}`))
	forged.AddCookie(cookie)
	forged.Header.Set(shared.CSRFHeader, "forged")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, forged)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
