package proxy

import (
	"log/slog"

	"github.com/vietddude/acadcom/internal/core/clock"
)

// Operation names, used in logs, metrics and RetryError.Op.
const (
	OpGetAttribute = "get_attribute"
	OpSetAttribute = "set_attribute"
	OpGetItem      = "get_item"
	OpSetItem      = "set_item"
	OpInvoke       = "invoke"
	OpIterate      = "iterate"
)

var _ Object = (*Proxy)(nil)

// Proxy is a resilient wrapper around one foreign Object.
type Proxy struct {
	target Object
	policy Policy
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures a Proxy.
type Option func(*Proxy)

// WithPolicy overrides DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(px *Proxy) { px.policy = p }
}

// WithClock sets the clock used for backoff sleeps.
func WithClock(c clock.Clock) Option {
	return func(px *Proxy) { px.clock = c }
}

// WithLogger sets the logger for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(px *Proxy) { px.logger = l }
}

// Wrap returns a Proxy forwarding to obj. Wrapping a *Proxy wraps its target
// instead, inheriting its settings unless overridden by opts, so retries
// never stack.
func Wrap(obj Object, opts ...Option) *Proxy {
	px := &Proxy{
		target: obj,
		policy: DefaultPolicy,
		clock:  clock.Real(),
		logger: slog.Default(),
	}
	if inner, ok := obj.(*Proxy); ok {
		*px = *inner
	}
	for _, opt := range opts {
		opt(px)
	}
	return px
}

// Target returns the wrapped foreign object.
func (p *Proxy) Target() Object { return p.target }

// Policy returns the retry policy of p.
func (p *Proxy) Policy() Policy { return p.policy }

// child wraps a result with p's settings.
func (p *Proxy) child(obj Object) *Proxy {
	return &Proxy{target: obj, policy: p.policy, clock: p.clock, logger: p.logger}
}

// GetAttribute reads attribute name off the foreign object.
func (p *Proxy) GetAttribute(name string) (any, error) {
	v, err := p.do(OpGetAttribute, name, func() (any, error) {
		return p.target.GetAttribute(name)
	})
	if err != nil {
		return nil, err
	}
	return p.maybeWrap(v), nil
}

// SetAttribute writes attribute name. A *Proxy value is sent as its target.
func (p *Proxy) SetAttribute(name string, value any) error {
	raw := unwrap(value)
	_, err := p.do(OpSetAttribute, name, func() (any, error) {
		return nil, p.target.SetAttribute(name, raw)
	})
	return err
}

// GetItem reads an element of a foreign collection.
func (p *Proxy) GetItem(key any) (any, error) {
	raw := unwrap(key)
	v, err := p.do(OpGetItem, memberOf(key), func() (any, error) {
		return p.target.GetItem(raw)
	})
	if err != nil {
		return nil, err
	}
	return p.maybeWrap(v), nil
}

// SetItem writes an element of a foreign collection.
func (p *Proxy) SetItem(key any, value any) error {
	rawKey, rawValue := unwrap(key), unwrap(value)
	_, err := p.do(OpSetItem, memberOf(key), func() (any, error) {
		return nil, p.target.SetItem(rawKey, rawValue)
	})
	return err
}

// Invoke calls the foreign object. Every *Proxy argument, positional or
// NamedArg, is sent as its target.
func (p *Proxy) Invoke(args ...any) (any, error) {
	raw := unwrapArgs(args)
	v, err := p.do(OpInvoke, "", func() (any, error) {
		return p.target.Invoke(raw...)
	})
	if err != nil {
		return nil, err
	}
	return p.maybeWrap(v), nil
}

// Iterate acquires the foreign iterator with retry. Elements are not
// retried individually; Objects among them come back wrapped.
func (p *Proxy) Iterate() (Iterator, error) {
	v, err := p.do(OpIterate, "", func() (any, error) {
		return p.target.Iterate()
	})
	if err != nil {
		return nil, err
	}
	inner, ok := v.(Iterator)
	if !ok {
		return nil, ErrNotSupported
	}
	return &iterator{parent: p, inner: inner}, nil
}

type iterator struct {
	parent *Proxy
	inner  Iterator
}

func (it *iterator) Next() (any, bool, error) {
	v, ok, err := it.inner.Next()
	if err != nil || !ok {
		return nil, ok, err
	}
	return it.parent.maybeWrap(v), true, nil
}

func (it *iterator) Close() error { return it.inner.Close() }
