// Package session keeps a wallet session in sync with an injected wallet provider.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"

	"github.com/tokenfaucet/faucet-connector/connector/network"
	"github.com/tokenfaucet/faucet-connector/fc-service/eth"
	"github.com/tokenfaucet/faucet-connector/fc-service/locks"
	"github.com/tokenfaucet/faucet-connector/fc-service/provider"
	"github.com/tokenfaucet/faucet-connector/metrics"
)

var (
	ErrNotInitialized = errors.New("wallet session is not initialized")
	ErrWrongNetwork   = errors.New("wallet is not on the target network")
	ErrNoAccounts     = errors.New("wallet exposed no accounts")
)

// SessionHook observes every published session, together with the provider it was derived from.
// After Close it is called once more with a nil provider and an empty session.
type SessionHook func(p provider.Provider, sess Session)

type Option func(s *Synchronizer)

func WithSessionHook(h SessionHook) Option {
	return func(s *Synchronizer) {
		s.hooks = append(s.hooks, h)
	}
}

type snapshot struct {
	status  Status
	session Session
}

// mount is the scope of one Initialize, up to the matching Close.
// Updates computed under a mount that is no longer current are dropped.
type mount struct {
	p         provider.Provider
	ctx       context.Context
	cancel    context.CancelFunc
	disposers []provider.Disposer
}

func (m *mount) release() {
	m.cancel()
	for _, d := range m.disposers {
		d()
	}
	m.disposers = nil
}

// Synchronizer derives the wallet session from the provider, and keeps it current
// as the provider reports account and chain changes.
// Concurrent refreshes are not ordered: the last one to complete wins.
type Synchronizer struct {
	log      log.Logger
	m        metrics.Metricer
	detector provider.Detector
	hooks    []SessionHook

	// lifeMu serializes Initialize and Close
	lifeMu sync.Mutex
	// pubMu keeps state, hooks and feed in the same order
	pubMu sync.Mutex

	mu    sync.Mutex
	mount *mount

	state locks.RWValue[snapshot]
	feed  event.FeedOf[Session]
}

func NewSynchronizer(logger log.Logger, detector provider.Detector, m metrics.Metricer, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		log:      logger,
		m:        m,
		detector: detector,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Set(snapshot{status: StatusUninitialized, session: Session{}.clone()})
	return s
}

// Initialize detects the provider, registers the accountsChanged and chainChanged listeners,
// and derives the initial session. Without a provider the status becomes no-provider and stays so.
// It does nothing while already mounted.
func (s *Synchronizer) Initialize(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if st := s.Status(); st != StatusUninitialized {
		s.log.Debug("Wallet session already initialized", "status", st)
		return nil
	}
	s.setStatus(StatusDetecting)

	p, err := s.detector.Detect(ctx)
	if errors.Is(err, provider.ErrNoProvider) {
		s.log.Warn("No wallet provider detected", "err", err)
		s.setStatus(StatusNoProvider)
		return nil
	} else if err != nil {
		s.setStatus(StatusUninitialized)
		return fmt.Errorf("failed to detect wallet provider: %w", err)
	}

	mctx, cancel := context.WithCancel(context.Background())
	m := &mount{p: p, ctx: mctx, cancel: cancel}
	s.mu.Lock()
	s.mount = m
	s.mu.Unlock()

	// Listen before reading the state, so that no change in between goes unnoticed.
	for _, ev := range []provider.Event{provider.AccountsChanged, provider.ChainChanged} {
		d, err := p.On(ev, s.handler(m, ev))
		if err != nil {
			s.unmount(m)
			s.setStatus(StatusUninitialized)
			return fmt.Errorf("failed to subscribe to %s: %w", ev, err)
		}
		m.disposers = append(m.disposers, d)
	}
	s.log.Info("Wallet provider mounted")

	accounts, err := provider.Accounts(ctx, p)
	if err != nil {
		s.log.Warn("Failed to query wallet accounts", "err", err)
		s.replace(m, Session{})
		return nil
	}
	if len(accounts) > 0 {
		if err := s.refresh(ctx, m, accounts); err != nil {
			s.replace(m, Session{})
		}
		return nil
	}
	chainID, err := provider.ChainID(ctx, p)
	if err != nil {
		s.log.Warn("Failed to query wallet chain", "err", err)
	}
	s.replace(m, Session{ChainID: chainID})
	return nil
}

// Close releases the provider listeners, exactly once per mount.
// The provider stays open: it belongs to whoever handed it to the detector.
// The status returns to uninitialized, so that Initialize can mount again.
func (s *Synchronizer) Close() error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	s.mu.Lock()
	m := s.mount
	s.mount = nil
	s.mu.Unlock()

	if m != nil {
		s.unmount(m)
		s.log.Info("Wallet provider unmounted")
	}
	s.setStatus(StatusUninitialized)
	return nil
}

func (s *Synchronizer) unmount(m *mount) {
	s.mu.Lock()
	if s.mount == m {
		s.mount = nil
	}
	s.mu.Unlock()
	m.release()
}

// OnAccountsChanged applies an account list: a non-empty list refreshes the session,
// an empty one resets it without further provider calls.
func (s *Synchronizer) OnAccountsChanged(ctx context.Context, accounts []common.Address) error {
	m, err := s.current()
	if err != nil {
		return err
	}
	return s.onAccountsChanged(ctx, m, accounts)
}

// OnChainChanged publishes the new chain id right away, then re-derives the session
// from the accounts the provider currently exposes.
func (s *Synchronizer) OnChainChanged(ctx context.Context, chainID hexutil.Uint64) error {
	m, err := s.current()
	if err != nil {
		return err
	}
	return s.onChainChanged(ctx, m, chainID)
}

// RefreshSession reads the balance of accounts[0] and the chain id, and replaces the session.
func (s *Synchronizer) RefreshSession(ctx context.Context, accounts []common.Address) error {
	if len(accounts) == 0 {
		return ErrNoAccounts
	}
	m, err := s.current()
	if err != nil {
		return err
	}
	return s.refresh(ctx, m, accounts)
}

// Connect asks the wallet to add and switch to the network. Account access is only requested
// once the wallet reports the target chain. A failure leaves the session unchanged.
func (s *Synchronizer) Connect(ctx context.Context, n network.Network) error {
	m, err := s.current()
	if err != nil {
		return err
	}
	onDone := s.m.RecordConnect(n.HexChainID())
	err = s.connect(ctx, m, n)
	onDone(err)
	return err
}

func (s *Synchronizer) connect(ctx context.Context, m *mount, n network.Network) error {
	target := n.HexChainID()
	logger := s.log.New("target", target, "name", n.ChainName)

	if err := provider.AddChain(ctx, m.p, n.AddChainParams()); err != nil {
		logger.Warn("Wallet did not switch network", "err", err)
		return fmt.Errorf("failed to switch network: %w", err)
	}
	current, err := provider.ChainID(ctx, m.p)
	if err != nil {
		logger.Warn("Failed to read chain after switch", "err", err)
		return fmt.Errorf("failed to read chain id: %w", err)
	}
	if current != target {
		logger.Warn("Wallet is on another network", "chain", current)
		return fmt.Errorf("%w: wallet reports chain %s", ErrWrongNetwork, current)
	}
	accounts, err := provider.RequestAccounts(ctx, m.p)
	if err != nil {
		logger.Warn("Account access was not granted", "err", err)
		return fmt.Errorf("failed to request accounts: %w", err)
	}
	if len(accounts) == 0 {
		logger.Warn("Wallet granted no accounts")
		return ErrNoAccounts
	}
	logger.Info("Connected wallet", "account", accounts[0])
	return s.refresh(ctx, m, accounts)
}

func (s *Synchronizer) onAccountsChanged(ctx context.Context, m *mount, accounts []common.Address) error {
	if len(accounts) == 0 {
		s.log.Info("Wallet disconnected")
		s.replace(m, Session{})
		return nil
	}
	return s.refresh(ctx, m, accounts)
}

func (s *Synchronizer) onChainChanged(ctx context.Context, m *mount, chainID hexutil.Uint64) error {
	s.update(m, func(cur Session) Session {
		cur.ChainID = chainID
		return cur
	})
	accounts, err := provider.Accounts(ctx, m.p)
	if err != nil {
		s.log.Warn("Failed to query wallet accounts", "chain", chainID, "err", err)
		return fmt.Errorf("failed to query accounts: %w", err)
	}
	if len(accounts) == 0 {
		s.replace(m, Session{ChainID: chainID})
		return nil
	}
	return s.refresh(ctx, m, accounts)
}

func (s *Synchronizer) refresh(ctx context.Context, m *mount, accounts []common.Address) error {
	onDone := s.m.RecordRefresh()
	var (
		balance *big.Int
		chainID hexutil.Uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bal, err := provider.Balance(gctx, m.p, accounts[0])
		if err != nil {
			return fmt.Errorf("failed to fetch balance: %w", err)
		}
		balance = bal
		return nil
	})
	g.Go(func() error {
		id, err := provider.ChainID(gctx, m.p)
		if err != nil {
			return fmt.Errorf("failed to fetch chain id: %w", err)
		}
		chainID = id
		return nil
	})
	err := g.Wait()
	onDone(err)
	if err != nil {
		s.log.Warn("Failed to refresh wallet session", "account", accounts[0], "err", err)
		return err
	}
	s.replace(m, Session{
		Accounts:   accounts,
		Balance:    eth.FormatBalance(balance),
		BalanceWei: (*hexutil.Big)(balance),
		ChainID:    chainID,
	})
	return nil
}

func (s *Synchronizer) handler(m *mount, ev provider.Event) provider.Handler {
	return func(payload json.RawMessage) {
		s.m.RecordProviderEvent(string(ev))
		switch ev {
		case provider.AccountsChanged:
			accounts, err := provider.DecodeAccounts(payload)
			if err != nil {
				s.log.Warn("Ignoring malformed notification", "event", ev, "err", err)
				return
			}
			_ = s.onAccountsChanged(m.ctx, m, accounts)
		case provider.ChainChanged:
			chainID, err := provider.DecodeChainID(payload)
			if err != nil {
				s.log.Warn("Ignoring malformed notification", "event", ev, "err", err)
				return
			}
			_ = s.onChainChanged(m.ctx, m, chainID)
		}
	}
}

func (s *Synchronizer) current() (*mount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mount == nil {
		if s.Status() == StatusNoProvider {
			return nil, provider.ErrNoProvider
		}
		return nil, ErrNotInitialized
	}
	return s.mount, nil
}

// replace publishes the session, if the mount it was derived under is still current.
func (s *Synchronizer) replace(m *mount, sess Session) bool {
	return s.update(m, func(Session) Session { return sess })
}

func (s *Synchronizer) update(m *mount, fn func(cur Session) Session) bool {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	if s.mount != m {
		s.mu.Unlock()
		s.log.Debug("Dropping session update of unmounted provider")
		return false
	}
	next := fn(s.state.Get().session.clone()).clone()
	status := next.Status()
	s.state.Set(snapshot{status: status, session: next})
	s.mu.Unlock()

	s.log.Debug("Session updated", "status", status, "accounts", len(next.Accounts), "chain", next.ChainID, "balance", next.Balance)
	var wei *big.Int
	if next.BalanceWei != nil {
		wei = next.BalanceWei.ToInt()
	}
	s.m.RecordSession(status.String(), next.ChainID, eth.WeiBig(wei))
	s.publish(m.p, next)
	return true
}

func (s *Synchronizer) setStatus(status Status) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	empty := Session{}.clone()
	s.state.Set(snapshot{status: status, session: empty})
	s.m.RecordSession(status.String(), 0, eth.ZeroWei)
	s.publish(nil, empty)
}

// publish must be called with pubMu held.
func (s *Synchronizer) publish(p provider.Provider, sess Session) {
	for _, h := range s.hooks {
		h(p, sess.clone())
	}
	s.feed.Send(sess.clone())
}

func (s *Synchronizer) Status() Status {
	return s.state.Get().status
}

// Session returns a copy of the current session.
func (s *Synchronizer) Session() Session {
	return s.state.Get().session.clone()
}

// SubscribeSession delivers published sessions to ch.
// A receiver that falls behind gets the newest session, skipping the ones in between,
// so that it never holds up publishing.
func (s *Synchronizer) SubscribeSession(ch chan<- Session) event.Subscription {
	in := make(chan Session)
	sub := s.feed.Subscribe(in)
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		var (
			next    Session
			pending bool
		)
		for {
			var out chan<- Session
			if pending {
				out = ch
			}
			select {
			case sess := <-in:
				next, pending = sess, true
			case out <- next:
				pending = false
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	})
}
