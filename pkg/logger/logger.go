// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns the per-request logger injected by the request-logger
// middleware, so every line written by a handler or service carries the
// request_id of the request that caused it:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("pedido criado", "numero_pedido", p.NumeroPedido)
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/multidelivery/painel/config"
)

var L *slog.Logger

func init() {
	L = slog.New(consoleHandler())
	slog.SetDefault(L)
}

func consoleHandler() slog.Handler {
	if config.IsProduction() {
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// EnableMongo fans every record out to a MongoDB collection in addition to
// stdout. The returned func flushes and disconnects.
func EnableMongo(uri, db, collection string) (func(), error) {
	mh, err := NewMongoHandler(uri, db, collection)
	if err != nil {
		return func() {}, fmt.Errorf("logger: %w", err)
	}
	L = slog.New(NewMultiHandler(consoleHandler(), mh))
	slog.SetDefault(L)
	return mh.Close, nil
}

type ctxKey struct{}

// WithCtx returns the request-scoped logger stored in ctx, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a request-scoped logger into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
