package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multidelivery/painel/pkg/auth"
	"github.com/multidelivery/painel/pkg/middleware"
)

type unauthErr string

func (e unauthErr) Error() string      { return string(e) }
func (e unauthErr) Unauthorized() bool { return true }

func echoIdentity(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())
	_, _ = w.Write([]byte(id.UserID + "/" + id.Role))
}

func TestAuthenticate(t *testing.T) {
	a := middleware.AuthenticatorFunc(func(_ context.Context, token string) (middleware.Identity, error) {
		switch token {
		case "good":
			return middleware.Identity{UserID: "u-1", Role: "admin"}, nil
		case "":
			return middleware.Identity{}, unauthErr("Token não fornecido")
		case "boom":
			return middleware.Identity{}, errors.New("db down")
		}
		return middleware.Identity{}, unauthErr("Sessão inválida")
	})
	h := middleware.Authenticate(a)(http.HandlerFunc(echoIdentity))

	cases := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"valid", "Bearer good", http.StatusOK, "u-1/admin"},
		{"missing", "", http.StatusUnauthorized, `{"error":"Token não fornecido"}`},
		{"unknown", "Bearer other", http.StatusUnauthorized, `{"error":"Sessão inválida"}`},
		{"internal", "Bearer boom", http.StatusInternalServerError, `{"error":"Erro interno do servidor"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.code, rec.Code)
			assert.JSONEq(t, jsonOrString(tc.body), jsonOrString(rec.Body.String()))
		})
	}
}

// jsonOrString lets JSONEq compare plain bodies too.
func jsonOrString(s string) string {
	if len(s) > 0 && s[0] == '{' {
		return s
	}
	return `"` + s + `"`
}

func TestStreamTicket(t *testing.T) {
	h := middleware.StreamTicket(http.HandlerFunc(echoIdentity))

	ticket, err := auth.GenerateToken("u-9", "user", auth.PurposeStream, time.Minute)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pedidos/events?ticket="+ticket, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-9/user", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pedidos/events", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := middleware.RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/pedidos", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{204, 204, 429}, codes)

	req := httptest.NewRequest(http.MethodGet, "/api/pedidos/events", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Erro interno do servidor"}`, rec.Body.String())
}

func TestRecoveryAfterStreamStarted(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(": ping\n\n"))
		w.(http.Flusher).Flush()
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pedidos/events", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ": ping\n\n", rec.Body.String())
}

func TestLoggerKeepsFlusher(t *testing.T) {
	var flushable bool
	h := middleware.Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, flushable = w.(http.Flusher)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, flushable)
}

func TestCORSPreflight(t *testing.T) {
	h := middleware.CORS([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/pedidos", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
