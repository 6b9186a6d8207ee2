package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

const DefaultPollInterval = 2 * time.Second

// RPCProvider is a wallet reached over JSON-RPC (http, ws or ipc).
// Notifications use eth_subscribe where the transport and the wallet support it,
// and fall back to polling eth_accounts and eth_chainId for changes otherwise.
type RPCProvider struct {
	log          log.Logger
	client       *rpc.Client
	pollInterval time.Duration
}

var _ Provider = (*RPCProvider)(nil)

func NewRPCProvider(logger log.Logger, client *rpc.Client, pollInterval time.Duration) *RPCProvider {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &RPCProvider{log: logger, client: client, pollInterval: pollInterval}
}

func (p *RPCProvider) Request(ctx context.Context, result any, method string, params ...any) error {
	return p.client.CallContext(ctx, result, method, params...)
}

func (p *RPCProvider) On(ev Event, h Handler) (Disposer, error) {
	if !ev.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEvent, ev)
	}
	ch := make(chan json.RawMessage, 10)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var sub ethereum.Subscription
	clientSub, err := p.client.Subscribe(ctx, "eth", ch, string(ev))
	var rpcErr rpc.Error
	switch {
	case errors.Is(err, rpc.ErrNotificationsUnsupported):
		p.log.Debug("Wallet transport has no subscriptions, polling instead", "event", ev, "interval", p.pollInterval)
		sub = p.poll(ev, ch)
	case errors.As(err, &rpcErr):
		// the wallet answered, but does not serve this subscription
		p.log.Debug("Wallet rejected subscription, polling instead", "event", ev, "interval", p.pollInterval, "err", err)
		sub = p.poll(ev, ch)
	case err != nil:
		return nil, fmt.Errorf("failed to subscribe to %s: %w", ev, err)
	default:
		sub = clientSub
	}

	logger := p.log.New("event", ev)
	go func() {
		for {
			select {
			case payload := <-ch:
				h(payload)
			case err, ok := <-sub.Err():
				if ok && err != nil {
					logger.Warn("Wallet subscription failed", "err", err)
				}
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(sub.Unsubscribe)
	}, nil
}

// poll emits the result of the state query whenever it changes.
// The first result is only recorded, since listeners want changes, not the current state.
func (p *RPCProvider) poll(ev Event, dest chan<- json.RawMessage) ethereum.Subscription {
	method := "eth_accounts"
	if ev == ChainChanged {
		method = "eth_chainId"
	}
	return event.NewSubscription(func(quit <-chan struct{}) error {
		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()

		var last json.RawMessage
		for {
			ctx, cancel := context.WithTimeout(context.Background(), p.pollInterval)
			var cur json.RawMessage
			err := p.client.CallContext(ctx, &cur, method)
			cancel()
			if err != nil {
				p.log.Warn("Failed to poll wallet state", "method", method, "err", err)
			} else {
				if last != nil && !bytes.Equal(last, cur) {
					select {
					case dest <- cur:
					case <-quit:
						return nil
					}
				}
				last = cur
			}
			select {
			case <-quit:
				return nil
			case <-ticker.C:
			}
		}
	})
}

func (p *RPCProvider) Close() error {
	p.client.Close()
	return nil
}

// RPCDetector detects a wallet at a JSON-RPC endpoint.
// It owns the connections it dials: a new detection closes the previous one, and so does Close.
type RPCDetector struct {
	Log          log.Logger
	Endpoint     string
	PollInterval time.Duration

	mu   sync.Mutex
	last *RPCProvider
}

var _ Detector = (*RPCDetector)(nil)

// Detect dials the endpoint and probes eth_chainId.
// Any failure to reach a wallet is reported as ErrNoProvider.
func (d *RPCDetector) Detect(ctx context.Context) (Provider, error) {
	if d.Endpoint == "" {
		return nil, ErrNoProvider
	}
	if err := d.Close(); err != nil {
		return nil, err
	}
	client, err := rpc.DialContext(ctx, d.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to dial %s: %w", ErrNoProvider, d.Endpoint, err)
	}
	var chainID string
	if err := client.CallContext(ctx, &chainID, "eth_chainId"); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: wallet at %s did not answer: %w", ErrNoProvider, d.Endpoint, err)
	}
	d.Log.Info("Detected wallet provider", "endpoint", d.Endpoint, "chain", chainID)
	p := NewRPCProvider(d.Log, client, d.PollInterval)
	d.mu.Lock()
	d.last = p
	d.mu.Unlock()
	return p, nil
}

// Close closes the connection of the last detection, if any.
func (d *RPCDetector) Close() error {
	d.mu.Lock()
	p := d.last
	d.last = nil
	d.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Close()
}
