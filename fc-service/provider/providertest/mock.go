// Package providertest offers a scripted wallet provider for tests.
package providertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tokenfaucet/faucet-connector/fc-service/provider"
)

// Responder answers a wallet method. The result is JSON encoded before it reaches the caller.
type Responder func(params []any) (any, error)

type Call struct {
	Method string
	Params []any
}

type listener struct {
	ev provider.Event
	h  provider.Handler
}

// Provider is a goroutine-safe provider.Provider with scripted method results.
// Methods without a responder fail with the unsupported-method provider error.
// Emit delivers notifications synchronously, on the calling goroutine.
type Provider struct {
	mu         sync.Mutex
	responders map[string]Responder
	calls      []Call
	listeners  map[uint64]listener
	nextID     uint64
	added      map[provider.Event]int
	removed    map[provider.Event]int
	closed     int
}

var _ provider.Provider = (*Provider)(nil)

func New() *Provider {
	return &Provider{
		responders: make(map[string]Responder),
		listeners:  make(map[uint64]listener),
		added:      make(map[provider.Event]int),
		removed:    make(map[provider.Event]int),
	}
}

func (p *Provider) Handle(method string, r Responder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responders[method] = r
}

// Return makes the method always answer with the given result.
func (p *Provider) Return(method string, result any) {
	p.Handle(method, func([]any) (any, error) { return result, nil })
}

// Fail makes the method always answer with the given error.
func (p *Provider) Fail(method string, err error) {
	p.Handle(method, func([]any) (any, error) { return nil, err })
}

func (p *Provider) Request(ctx context.Context, result any, method string, params ...any) error {
	p.mu.Lock()
	p.calls = append(p.calls, Call{Method: method, Params: params})
	r, ok := p.responders[method]
	p.mu.Unlock()
	if !ok {
		return &provider.RPCError{Code: provider.CodeUnsupportedMethod, Message: fmt.Sprintf("method %s is not scripted", method)}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	out, err := r(params)
	if err != nil {
		return err
	}
	if result == nil || out == nil {
		return nil
	}
	enc, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return json.Unmarshal(enc, result)
}

func (p *Provider) On(ev provider.Event, h provider.Handler) (provider.Disposer, error) {
	if !ev.Valid() {
		return nil, fmt.Errorf("%w: %q", provider.ErrUnsupportedEvent, ev)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.listeners[id] = listener{ev: ev, h: h}
	p.added[ev]++
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.listeners, id)
			p.removed[ev]++
		})
	}, nil
}

// Emit delivers the JSON encoding of payload to every listener of the event.
func (p *Provider) Emit(ev provider.Event, payload any) {
	enc, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Errorf("failed to encode %s payload: %w", ev, err))
	}
	p.mu.Lock()
	var hs []provider.Handler
	for _, l := range p.listeners {
		if l.ev == ev {
			hs = append(hs, l.h)
		}
	}
	p.mu.Unlock()
	for _, h := range hs {
		h(enc)
	}
}

func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

// Listeners returns the number of currently registered listeners for the event.
func (p *Provider) Listeners(ev provider.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, l := range p.listeners {
		if l.ev == ev {
			n++
		}
	}
	return n
}

func (p *Provider) Added(ev provider.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.added[ev]
}

func (p *Provider) Removed(ev provider.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removed[ev]
}

// Calls counts the requests made for the method.
func (p *Provider) Calls(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Requests returns the requests made for the method, in order.
func (p *Provider) Requests(method string) []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Call
	for _, c := range p.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// CallLog returns a copy of all requests, in order.
func (p *Provider) CallLog() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

func (p *Provider) ResetCalls() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}

func (p *Provider) Closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Detector always detects this provider.
func (p *Provider) Detector() provider.Detector {
	return provider.Static(p)
}
