// Copyright 2019 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package testlog routes go-ethereum log records into the unit test log.
package testlog

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

var useColor = os.Getenv("FC_TESTLOG_COLOR") == "true"

// Testing is the subset of testing.TB the logger writes to.
type Testing interface {
	Logf(format string, args ...any)
	Helper()
}

// logger implements log.Logger by buffering each formatted record and flushing it with t.Logf.
// The level methods are marked as helpers, so the reported file and line are the call site.
type logger struct {
	t   Testing
	l   log.Logger
	mu  *sync.Mutex
	buf *bytes.Buffer
}

var _ log.Logger = (*logger)(nil)

// Logger returns a logger which logs to the unit test log of t.
func Logger(t Testing, level slog.Level) log.Logger {
	l := &logger{t: t, mu: new(sync.Mutex), buf: new(bytes.Buffer)}
	l.l = log.NewLogger(log.NewTerminalHandlerWithLevel(l.buf, level, useColor))
	return l
}

func (l *logger) Handler() slog.Handler {
	return l.l.Handler()
}

func (l *logger) Write(level slog.Level, msg string, ctx ...interface{}) {
	l.t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.l.Write(level, msg, ctx...)
	l.flush()
}

func (l *logger) Trace(msg string, ctx ...interface{}) {
	l.t.Helper()
	l.Write(log.LevelTrace, msg, ctx...)
}

func (l *logger) Debug(msg string, ctx ...interface{}) {
	l.t.Helper()
	l.Write(log.LevelDebug, msg, ctx...)
}

func (l *logger) Info(msg string, ctx ...interface{}) {
	l.t.Helper()
	l.Write(log.LevelInfo, msg, ctx...)
}

func (l *logger) Warn(msg string, ctx ...interface{}) {
	l.t.Helper()
	l.Write(log.LevelWarn, msg, ctx...)
}

func (l *logger) Error(msg string, ctx ...interface{}) {
	l.t.Helper()
	l.Write(log.LevelError, msg, ctx...)
}

func (l *logger) Crit(msg string, ctx ...interface{}) {
	l.t.Helper()
	l.Write(log.LevelCrit, msg, ctx...)
	os.Exit(1)
}

func (l *logger) Log(level slog.Level, msg string, ctx ...interface{}) {
	l.t.Helper()
	l.Write(level, msg, ctx...)
}

func (l *logger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.l.Enabled(ctx, level)
}

func (l *logger) With(ctx ...interface{}) log.Logger {
	return &logger{t: l.t, l: l.l.With(ctx...), mu: l.mu, buf: l.buf}
}

func (l *logger) New(ctx ...interface{}) log.Logger {
	return l.With(ctx...)
}

// flush writes the buffered record to the test log. Must be called with mu held.
func (l *logger) flush() {
	l.t.Helper()
	out := strings.TrimRight(l.buf.String(), "\n")
	if out != "" {
		l.t.Logf("%s", out)
	}
	l.buf.Reset()
}
