package httputil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// Timeouts of the HTTP server. Websocket connections are not affected by the write timeout,
// since they are hijacked before any deadline applies.
type Timeouts struct {
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

var DefaultTimeouts = Timeouts{
	ReadTimeout:       30 * time.Second,
	ReadHeaderTimeout: 30 * time.Second,
	WriteTimeout:      30 * time.Second,
	IdleTimeout:       120 * time.Second,
}

// HTTPServer wraps a http.Server, and exposes the running state and bound address.
//
// Start brings it online, Stop, Shutdown and Close take it offline with decreasing gracefulness.
// A 0 port binds to any available port, see Addr and HTTPEndpoint for the result.
// A stopped server can be started again.
type HTTPServer struct {
	// mu guards bringing the server online/offline, and the listener.
	mu sync.RWMutex

	listener net.Listener
	srv      *http.Server

	srvCancel context.CancelFunc

	listenAddr string
	handler    http.Handler
	timeouts   Timeouts
}

func NewHTTPServer(addr string, handler http.Handler) *HTTPServer {
	return &HTTPServer{listenAddr: addr, handler: handler, timeouts: DefaultTimeouts}
}

func StartHTTPServer(addr string, handler http.Handler) (*HTTPServer, error) {
	out := NewHTTPServer(addr, handler)
	return out, out.Start()
}

// Start binds the listener and serves, and checks the server comes online.
func (s *HTTPServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return errors.New("already have existing server")
	}

	srvCtx, srvCancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.timeouts.ReadTimeout,
		ReadHeaderTimeout: s.timeouts.ReadHeaderTimeout,
		WriteTimeout:      s.timeouts.WriteTimeout,
		IdleTimeout:       s.timeouts.IdleTimeout,
		BaseContext: func(net.Listener) context.Context {
			return srvCtx
		},
	}

	listener, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		srvCancel()
		return fmt.Errorf("failed to bind to address %q: %w", s.listenAddr, err)
	}
	s.listener = listener
	s.srv = srv
	s.srvCancel = srvCancel

	// cap of 1, to not block on non-immediate shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	standupTimer := time.NewTimer(10 * time.Millisecond)
	defer standupTimer.Stop()

	select {
	case err := <-errCh:
		s.cleanup()
		return fmt.Errorf("http server failed: %w", err)
	case <-standupTimer.C:
		return nil
	}
}

func (s *HTTPServer) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.srv == nil
}

// Stop shuts down gracefully, but force-closes if the ctx is cancelled first.
// The ctx error is not returned when the force-close succeeds.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if err := s.Shutdown(ctx); err != nil {
		if errors.Is(err, ctx.Err()) {
			return s.Close()
		}
		return err
	}
	return nil
}

func (s *HTTPServer) cleanup() {
	if s.srvCancel != nil {
		s.srvCancel()
	}
	s.srv = nil
	s.listener = nil
	s.srvCancel = nil
}

// Shutdown closes the listener, and lets active connections close gracefully.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return nil
	}
	s.srvCancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	s.cleanup()
	return nil
}

// Close force-closes the listener and all active connections.
func (s *HTTPServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return nil
	}
	s.srvCancel()
	if err := s.srv.Close(); err != nil {
		return err
	}
	s.cleanup()
	return nil
}

// Addr returns the bound address, or nil if the server is offline.
func (s *HTTPServer) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// HTTPEndpoint returns the http:// endpoint, or an empty string if the server is offline.
func (s *HTTPServer) HTTPEndpoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return "http://" + s.listener.Addr().String()
}

// WSEndpoint returns the ws:// endpoint, or an empty string if the server is offline.
func (s *HTTPServer) WSEndpoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return "ws://" + s.listener.Addr().String()
}
