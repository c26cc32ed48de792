// Package ctx provides the request context handed to every painel handler.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context with helpers for params, binding and replies:
//
//	func Show(c *ctx.Context) {
//	    p, err := svc.Find(c.Context(), c.Param("id"))
//	    ...
//	    c.JSON(http.StatusOK, p)
//	}
//
//	r.Get("/pedidos/{id}", "pedidos.show", ctx.Wrap(Show))
//
// Failures always use the shape {"error": "<mensagem>"}; validation
// failures add "campos" with one message per field.
package ctx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/multidelivery/painel/pkg/bind"
	"github.com/multidelivery/painel/pkg/validate"
)

// Messages used by the generic helpers.
const (
	MsgInvalidBody      = "Corpo da requisição inválido"
	MsgValidationFailed = "Dados inválidos"
	MsgInternal         = "Erro interno do servidor"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(&Context{W: w, R: r})
	}
}

// Context wraps a request/response pair.
type Context struct {
	W http.ResponseWriter
	R *http.Request
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Query returns a query-string value, or "".
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// QueryFlag reads a yes/no query parameter: "1", "true" and "sim" are yes.
func (c *Context) QueryFlag(key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "1", "true", "sim":
		return true
	}
	return false
}

func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// BearerToken returns the token of an "Authorization: Bearer <t>" header, or "".
func (c *Context) BearerToken() string {
	return BearerToken(c.R)
}

// BearerToken extracts the bearer token from r.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// ─── Binding / Validation ─────────────────────────────────────────────────────

// BindJSON decodes the body into dest and validates it. It writes 400 on a
// malformed body and 422 on validation failure, and returns false in both cases.
//
//	var in CreateInput
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, MsgInvalidBody)
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ShouldBindJSON decodes and validates without writing a response.
func (c *Context) ShouldBindJSON(dest any) (map[string]string, error) {
	return bind.JSON(c.R, dest)
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// Status writes just the status code with an empty body.
func (c *Context) Status(code int) {
	c.W.WriteHeader(code)
}

// JSON writes v as the response body.
func (c *Context) JSON(code int, v any) {
	c.W.Header().Set("Content-Type", "application/json")
	c.W.WriteHeader(code)
	json.NewEncoder(c.W).Encode(v) //nolint:errcheck
}

// Created sends v with 201.
func (c *Context) Created(v any) { c.JSON(http.StatusCreated, v) }

// NoContent sends an empty 204, e.g. when no order is waiting for an alert.
func (c *Context) NoContent() { c.Status(http.StatusNoContent) }

// Message sends {"message": msg}.
func (c *Context) Message(code int, msg string) {
	c.JSON(code, map[string]string{"message": msg})
}

// Error sends {"error": msg}.
func (c *Context) Error(code int, msg string) {
	c.JSON(code, ErrorBody{Error: msg})
}

// ValidationError sends 422 with the per-field messages.
func (c *Context) ValidationError(errs map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, ErrorBody{Error: MsgValidationFailed, Campos: errs})
}

// Internal logs nothing; it only hides err behind msg. Callers log first.
func (c *Context) Internal(msg string) {
	if msg == "" {
		msg = MsgInternal
	}
	c.Error(http.StatusInternalServerError, msg)
}

// ErrorBody is the wire shape of every failure.
type ErrorBody struct {
	Error  string            `json:"error"`
	Campos map[string]string `json:"campos,omitempty"`
}
