package connector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/tokenfaucet/faucet-connector/config"
	"github.com/tokenfaucet/faucet-connector/connector/faucet"
	"github.com/tokenfaucet/faucet-connector/connector/frontend"
	"github.com/tokenfaucet/faucet-connector/connector/network"
	"github.com/tokenfaucet/faucet-connector/connector/session"
	"github.com/tokenfaucet/faucet-connector/fc-service/cliapp"
	"github.com/tokenfaucet/faucet-connector/fc-service/httputil"
	fcmetrics "github.com/tokenfaucet/faucet-connector/fc-service/metrics"
	"github.com/tokenfaucet/faucet-connector/fc-service/provider"
	fcrpc "github.com/tokenfaucet/faucet-connector/fc-service/rpc"
	"github.com/tokenfaucet/faucet-connector/metrics"
)

type Service struct {
	closing atomic.Bool

	log log.Logger

	connectorCfg *network.Config
	synchronizer *session.Synchronizer
	invoker      *faucet.Invoker
	// wallet closes the provider connections, which outlive a mount
	wallet io.Closer

	metrics    metrics.Metricer
	metricsSrv *httputil.HTTPServer
	rpcHandler *fcrpc.Handler
	httpServer *httputil.HTTPServer
}

var _ cliapp.Lifecycle = (*Service)(nil)

func FromConfig(ctx context.Context, cfg *config.Config, logger log.Logger) (*Service, error) {
	s := &Service{log: logger}
	if err := s.initFromCLIConfig(ctx, cfg); err != nil {
		return nil, errors.Join(err, s.Stop(ctx)) // try to clean up our failed initialization attempt
	}
	return s, nil
}

func (s *Service) initFromCLIConfig(ctx context.Context, cfg *config.Config) error {
	s.initMetrics(cfg)
	if err := s.initMetricsServer(cfg); err != nil {
		return fmt.Errorf("failed to start Metrics server: %w", err)
	}
	if err := s.initConnector(ctx, cfg); err != nil {
		return fmt.Errorf("failed to setup connector: %w", err)
	}
	if err := s.initRPCHandler(cfg); err != nil {
		return fmt.Errorf("failed to start RPC handler: %w", err)
	}
	s.initHTTPServer(cfg)
	return nil
}

func (s *Service) initMetrics(cfg *config.Config) {
	if cfg.MetricsConfig.Enabled {
		procName := "default"
		s.metrics = metrics.NewMetrics(procName)
		s.metrics.RecordInfo(cfg.Version)
	} else {
		s.metrics = metrics.NoopMetrics{}
	}
}

func (s *Service) initMetricsServer(cfg *config.Config) error {
	if !cfg.MetricsConfig.Enabled {
		s.log.Info("Metrics disabled")
		return nil
	}
	m, ok := s.metrics.(fcmetrics.RegistryMetricer)
	if !ok {
		return fmt.Errorf("metrics were enabled, but metricer %T does not expose registry for metrics-server", s.metrics)
	}
	s.log.Debug("Starting metrics server", "addr", cfg.MetricsConfig.ListenAddr, "port", cfg.MetricsConfig.ListenPort)
	metricsSrv, err := fcmetrics.StartServer(m.Registry(), cfg.MetricsConfig.ListenAddr, cfg.MetricsConfig.ListenPort)
	if err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	s.log.Info("Started metrics server", "addr", metricsSrv.Addr())
	s.metricsSrv = metricsSrv
	return nil
}

func (s *Service) initConnector(ctx context.Context, cfg *config.Config) error {
	connectorCfg, err := cfg.Connector.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load connector config: %w", err)
	}
	if err := connectorCfg.Check(); err != nil {
		return fmt.Errorf("invalid connector config: %w", err)
	}
	s.connectorCfg = connectorCfg
	target := connectorCfg.Network

	detector, wallet, err := s.detector(cfg.Wallet, target)
	if err != nil {
		return err
	}
	s.wallet = wallet
	invoker, err := faucet.NewInvoker(s.log.New("component", "faucet"), target, connectorCfg.FaucetContract, s.metrics)
	if err != nil {
		return fmt.Errorf("failed to setup faucet: %w", err)
	}
	s.invoker = invoker
	s.synchronizer = session.NewSynchronizer(s.log.New("component", "session"), detector, s.metrics,
		session.WithSessionHook(invoker.Bind))
	s.log.Info("Connector configured", "chain", target.HexChainID(), "name", target.ChainName,
		"faucet", connectorCfg.FaucetContract, "tokens", len(connectorCfg.Tokens))
	return nil
}

// detector picks the in-process wallet when a local key is configured, the wallet endpoint otherwise.
func (s *Service) detector(cfg config.WalletConfig, target network.Network) (provider.Detector, io.Closer, error) {
	if cfg.LocalKey == "" {
		d := &provider.RPCDetector{
			Log:          s.log.New("wallet", "rpc"),
			Endpoint:     cfg.Endpoint,
			PollInterval: cfg.PollInterval,
		}
		return d, d, nil
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.LocalKey, "0x"))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid local wallet key: %w", err)
	}
	w, err := provider.NewLocalWallet(s.log.New("wallet", "local"), provider.LocalWalletConfig{
		Key:       key,
		Connected: cfg.LocalConnected,
		Chains:    []provider.AddEthereumChainParameter{target.AddChainParams()},
		Dial:      provider.DialEthClient,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create local wallet: %w", err)
	}
	s.log.Info("Using local wallet", "account", w.Account())
	return provider.Static(w), w, nil
}

func (s *Service) initRPCHandler(cfg *config.Config) error {
	s.rpcHandler = fcrpc.NewHandler(cfg.Version,
		fcrpc.WithLogger(s.log),
		fcrpc.WithCORSHosts(cfg.RPC.CORSOrigins),
		fcrpc.WithWebsocketEnabled(cfg.RPC.WSEnabled),
	)
	wallet := &walletBackend{Synchronizer: s.synchronizer, target: s.connectorCfg.Network}
	if err := s.rpcHandler.AddAPI(rpc.API{
		Namespace: "wallet",
		Service:   frontend.NewWalletFrontend(s.log.New("api", "wallet"), wallet),
	}); err != nil {
		return fmt.Errorf("failed to add wallet API: %w", err)
	}
	if err := s.rpcHandler.AddAPI(rpc.API{
		Namespace: "faucet",
		Service:   frontend.NewFaucetFrontend(s.invoker, s.connectorCfg.Tokens),
	}); err != nil {
		return fmt.Errorf("failed to add faucet API: %w", err)
	}
	return nil
}

func (s *Service) initHTTPServer(cfg *config.Config) {
	endpoint := net.JoinHostPort(cfg.RPC.ListenAddr, strconv.Itoa(cfg.RPC.ListenPort))
	s.httpServer = httputil.NewHTTPServer(endpoint, s.rpcHandler)
}

// Start mounts the wallet provider, then serves the RPC.
// A missing wallet is not fatal: the service serves the no-provider status.
func (s *Service) Start(ctx context.Context) error {
	if err := s.synchronizer.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize wallet session: %w", err)
	}
	s.log.Info("Wallet session initialized", "status", s.synchronizer.Status())

	s.log.Info("Starting JSON-RPC server")
	if err := s.httpServer.Start(); err != nil {
		return fmt.Errorf("unable to start RPC server: %w", err)
	}

	s.metrics.RecordUp()
	s.log.Info("JSON-RPC Server started", "endpoint", s.httpServer.HTTPEndpoint())
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	if !s.closing.CompareAndSwap(false, true) {
		s.log.Warn("Already closing")
		return nil // already closing
	}
	s.log.Info("Stopping JSON-RPC server")
	var result error
	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to stop HTTP server: %w", err))
		}
	}
	if s.rpcHandler != nil {
		s.rpcHandler.Stop()
	}
	s.log.Info("Stopped RPC Server")
	if s.synchronizer != nil {
		if err := s.synchronizer.Close(); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to close wallet session: %w", err))
		}
	}
	if s.wallet != nil {
		if err := s.wallet.Close(); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to close wallet provider: %w", err))
		}
	}
	s.log.Info("Closed wallet session")
	if s.metricsSrv != nil {
		if err := s.metricsSrv.Stop(ctx); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	}
	s.log.Info("JSON-RPC server stopped")
	return result
}

func (s *Service) Stopped() bool {
	return s.closing.Load()
}

func (s *Service) RPC() string {
	return s.httpServer.HTTPEndpoint()
}

func (s *Service) WS() string {
	return s.httpServer.WSEndpoint()
}

func (s *Service) Session() session.Session {
	return s.synchronizer.Session()
}

func (s *Service) Status() session.Status {
	return s.synchronizer.Status()
}

// walletBackend binds the synchronizer to the configured target network.
type walletBackend struct {
	*session.Synchronizer
	target network.Network
}

var _ frontend.WalletBackend = (*walletBackend)(nil)

func (w *walletBackend) Network() network.Network {
	return w.target
}

func (w *walletBackend) Connect(ctx context.Context) error {
	return w.Synchronizer.Connect(ctx, w.target)
}

// Refresh re-derives the session of the connected account.
func (w *walletBackend) Refresh(ctx context.Context) error {
	return w.Synchronizer.RefreshSession(ctx, w.Session().Accounts)
}
