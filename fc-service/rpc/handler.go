package rpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

const HealthzPath = "/healthz"

// Handler is an http.Handler serving a JSON-RPC server on the root path,
// over HTTP and, if enabled, websocket.
// A health endpoint is served on HealthzPath, and custom routes can be added with AddHandler.
type Handler struct {
	appVersion string
	started    time.Time
	corsHosts  []string
	wsEnabled  bool

	log log.Logger

	server *rpc.Server
	router chi.Router

	// outer is the full stack served to users, see ServeHTTP
	outer http.Handler
}

type Option func(h *Handler)

func WithLogger(lgr log.Logger) Option {
	return func(h *Handler) {
		h.log = lgr
	}
}

func WithCORSHosts(hosts []string) Option {
	return func(h *Handler) {
		h.corsHosts = hosts
	}
}

func WithWebsocketEnabled(enabled bool) Option {
	return func(h *Handler) {
		h.wsEnabled = enabled
	}
}

func NewHandler(appVersion string, opts ...Option) *Handler {
	h := &Handler{
		appVersion: appVersion,
		started:    time.Now(),
		corsHosts:  []string{"*"},
		log:        log.Root(),
		server:     rpc.NewServer(),
		router:     chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log.Debug("Creating RPC handler")

	if err := h.server.RegisterName("health", &healthzAPI{appVersion: appVersion}); err != nil {
		panic(fmt.Errorf("failed to register health RPC namespace: %w", err))
	}

	h.router.Use(
		middleware.RequestID,
		exposeRequestID,
		middleware.RequestLogger(&requestLogFormatter{log: h.log}),
		middleware.Recoverer,
	)
	h.router.Get(HealthzPath, h.serveHealthz)
	h.router.HandleFunc("/", h.serveRPC)

	var handler http.Handler = h.router
	handler = cors.New(cors.Options{
		AllowedOrigins: h.corsHosts,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	}).Handler(handler)
	h.outer = handler
	return h
}

var _ http.Handler = (*Handler)(nil)

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.outer.ServeHTTP(w, r)
}

// AddAPI registers a backend under the given RPC namespace.
func (h *Handler) AddAPI(api rpc.API) error {
	if err := h.server.RegisterName(api.Namespace, api.Service); err != nil {
		return fmt.Errorf("failed to register API namespace %s: %w", api.Namespace, err)
	}
	h.log.Info("Registered API", "namespace", api.Namespace)
	return nil
}

// AddHandler mounts a custom http.Handler on an absolute path.
func (h *Handler) AddHandler(path string, handler http.Handler) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	h.router.Handle(path, handler)
}

// Stop shuts down the RPC server, which closes all open subscriptions.
func (h *Handler) Stop() {
	h.server.Stop()
}

func (h *Handler) serveRPC(w http.ResponseWriter, r *http.Request) {
	if h.wsEnabled && isWebsocket(r) {
		h.server.WebsocketHandler(h.corsHosts).ServeHTTP(w, r)
		return
	}
	h.server.ServeHTTP(w, r)
}

func (h *Handler) serveHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"version": h.appVersion,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

func isWebsocket(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

type healthzAPI struct {
	appVersion string
}

func (h *healthzAPI) Status() string {
	return h.appVersion
}
