package rpc

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ethereum/go-ethereum/log"
)

// requestLogFormatter writes chi request log entries to a geth logger.
type requestLogFormatter struct {
	log log.Logger
}

var _ middleware.LogFormatter = (*requestLogFormatter)(nil)

func (f *requestLogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &requestLogEntry{log: f.log.New(
		"id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
	)}
}

type requestLogEntry struct {
	log log.Logger
}

func (e *requestLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ any) {
	if status == 0 {
		// hijacked, or nothing written
		status = http.StatusOK
	}
	e.log.Debug("Served HTTP request", "status", status, "bytes", bytes, "duration", elapsed)
}

func (e *requestLogEntry) Panic(v any, stack []byte) {
	e.log.Error("HTTP handler panicked", "panic", fmt.Sprint(v), "stack", string(stack))
}

// exposeRequestID echoes the request id to the caller.
func exposeRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(middleware.RequestIDHeader, middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r)
	})
}
