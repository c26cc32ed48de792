package ctx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appctx "github.com/multidelivery/painel/pkg/ctx"
)

func run(req *http.Request, h appctx.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	appctx.Wrap(h)(rec, req)
	return rec
}

func TestWrapAndJSON(t *testing.T) {
	rec := run(httptest.NewRequest(http.MethodGet, "/", nil), func(c *appctx.Context) {
		c.JSON(http.StatusOK, map[string]any{"ok": true})
	})

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestMessage(t *testing.T) {
	rec := run(httptest.NewRequest(http.MethodPost, "/", nil), func(c *appctx.Context) {
		c.Message(http.StatusOK, "Logout realizado")
	})

	if got := strings.TrimSpace(rec.Body.String()); got != `{"message":"Logout realizado"}` {
		t.Errorf("unexpected body: %s", got)
	}
}

func TestQueryFlag(t *testing.T) {
	for query, want := range map[string]bool{"?ativos=1": true, "?ativos=sim": true, "?ativos=TRUE": true, "?ativos=0": false, "": false} {
		run(httptest.NewRequest(http.MethodGet, "/api/produtos"+query, nil), func(c *appctx.Context) {
			if got := c.QueryFlag("ativos"); got != want {
				t.Errorf("%q: expected %v, got %v", query, want, got)
			}
		})
	}
}

func TestCreatedAndNoContent(t *testing.T) {
	rec := run(httptest.NewRequest(http.MethodPost, "/", nil), func(c *appctx.Context) {
		c.Created(map[string]int64{"numero_pedido": 7})
	})
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"numero_pedido":7`) {
		t.Errorf("unexpected reply %d: %s", rec.Code, rec.Body.String())
	}

	rec = run(httptest.NewRequest(http.MethodGet, "/api/pedidos/alerta", nil), func(c *appctx.Context) {
		c.NoContent()
	})
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Errorf("unexpected reply %d: %q", rec.Code, rec.Body.String())
	}
}

func TestBindJSONValid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nome":"Ana","email":"ana@x.com"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := run(req, func(c *appctx.Context) {
		var input struct {
			Nome  string `json:"nome"  validate:"required"`
			Email string `json:"email" validate:"required,email"`
		}
		if !c.BindJSON(&input) {
			t.Error("expected BindJSON to succeed")
			return
		}
		if input.Nome != "Ana" {
			t.Errorf("expected Ana, got %s", input.Nome)
		}
		c.Status(http.StatusNoContent)
	})

	if rec.Code != http.StatusNoContent {
		t.Errorf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBindJSONValidationFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nome":""}`))

	rec := run(req, func(c *appctx.Context) {
		var input struct {
			Nome string `json:"nome" validate:"required"`
		}
		if c.BindJSON(&input) {
			t.Error("expected BindJSON to fail")
		}
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"campos":{"nome"`) {
		t.Errorf("expected campos in body: %s", rec.Body.String())
	}
}

func TestBindJSONMalformed(t *testing.T) {
	rec := run(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`)), func(c *appctx.Context) {
		var input struct{}
		c.BindJSON(&input)
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), appctx.MsgInvalidBody) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer  xyz": "xyz",
		"Basic abc":   "",
		"":            "",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if got := appctx.BearerToken(req); got != want {
			t.Errorf("%q: expected %q, got %q", header, want, got)
		}
	}
}

func TestErrorShape(t *testing.T) {
	rec := run(httptest.NewRequest(http.MethodGet, "/", nil), func(c *appctx.Context) {
		c.Error(http.StatusNotFound, "Pedido não encontrado")
	})

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Pedido não encontrado"}` {
		t.Errorf("unexpected body: %s", got)
	}
}
