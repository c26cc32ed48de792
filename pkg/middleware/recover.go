package middleware

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"

	"github.com/multidelivery/painel/pkg/ctx"
	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/metrics"
	"github.com/multidelivery/painel/pkg/response"
)

// headerWatch remembers whether the handler already started its reply.
type headerWatch struct {
	http.ResponseWriter
	wrote bool
}

func (h *headerWatch) WriteHeader(code int) {
	h.wrote = true
	h.ResponseWriter.WriteHeader(code)
}

func (h *headerWatch) Write(b []byte) (int, error) {
	h.wrote = true
	return h.ResponseWriter.Write(b)
}

func (h *headerWatch) Flush() {
	if f, ok := h.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *headerWatch) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := h.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("middleware: hijack not supported")
	}
	h.wrote = true
	return hj.Hijack()
}

func (h *headerWatch) Unwrap() http.ResponseWriter { return h.ResponseWriter }

// Recovery turns a handler panic into a 500 "Erro interno do servidor" and
// logs the stack with the request id. When the handler had already started
// writing (an SSE stream, say) the connection is left to close without a
// second reply.
//
//	r.Use(metrics.Middleware())
//	r.Use(middleware.Recovery)
//	r.Use(reqid.Middleware())
//	r.Use(middleware.Logger)
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hw := &headerWatch{ResponseWriter: w}
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}

			metrics.PanicsRecovered.Inc()
			logger.WithCtx(r.Context()).Error("panic recovered",
				"error", fmt.Sprint(err),
				"stack", string(debug.Stack()),
				"method", r.Method,
				"path", r.URL.Path,
				"started", hw.wrote,
			)
			if !hw.wrote {
				response.Error(w, http.StatusInternalServerError, ctx.MsgInternal)
			}
		}()
		next.ServeHTTP(hw, r)
	})
}
