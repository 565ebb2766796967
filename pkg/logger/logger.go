// Package logger provides the storefront's structured, levelled logger built
// on log/slog.
//
// WithCtx returns the per-request logger injected by the Logger middleware, so
// every line written while serving a request carries its request_id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order created", "order_id", order.ID)
//	// → time=... level=INFO msg="order created" request_id=a1b2c3d4 order_id=...
package logger

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/perennia/storefront/config"
)

var L *slog.Logger

// base is the stdout handler; EnableMongo fans out from it.
var (
	base     slog.Handler
	sinkMu   sync.Mutex
	mongoOut *MongoHandler
)

func init() {
	Setup(config.IsProduction())
}

// Setup rebuilds the stdout logger: JSON at info level in production, text
// at debug level otherwise. Call it again once config is loaded.
func Setup(production bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if production {
		opts.Level = slog.LevelInfo
		base = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		base = slog.NewTextHandler(os.Stdout, opts)
	}

	sinkMu.Lock()
	if mongoOut != nil {
		L = slog.New(NewMultiHandler(base, mongoOut))
	} else {
		L = slog.New(base)
	}
	sinkMu.Unlock()
	slog.SetDefault(L)
}

// EnableMongo adds an asynchronous MongoDB sink next to stdout. The returned
// func flushes and disconnects; call it on shutdown.
func EnableMongo(uri, db string) (func(), error) {
	h, err := NewMongoHandler(uri, db, "logs")
	if err != nil {
		return func() {}, err
	}

	sinkMu.Lock()
	mongoOut = h
	L = slog.New(NewMultiHandler(base, h))
	slog.SetDefault(L)
	sinkMu.Unlock()

	return func() {
		sinkMu.Lock()
		defer sinkMu.Unlock()
		if mongoOut != nil {
			mongoOut.Close()
			mongoOut = nil
			L = slog.New(base)
			slog.SetDefault(L)
		}
	}, nil
}

// ─── Context-aware logger ─────────────────────────────────────────────────────

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

// InjectLogger stores log in ctx. Used by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
