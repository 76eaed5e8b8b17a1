// Package fakegraph is an in-memory stand-in for the CAD application's
// automation object graph. Nodes record every call they receive and can be
// scripted to fail with status codes, so tests can drive the proxy and its
// callers without the real application.
//
// Nodes are not safe for concurrent use, matching the real application.
package fakegraph

import (
	"fmt"

	"github.com/vietddude/acadcom/internal/core/hresult"
	"github.com/vietddude/acadcom/internal/infra/proxy"
)

// Call is one recorded operation on a node or method.
type Call struct {
	Op     string
	Member string
	Args   []any
}

// MethodFunc implements a fake method.
type MethodFunc func(args ...any) (any, error)

// Node is a fake graph object.
type Node struct {
	Name string

	attrs    map[string]any
	methods  map[string]*Method
	items    map[any]any
	elements []any
	call     MethodFunc
	failures map[string][]error
	sticky   map[string]error
	calls    []Call
	closed   int
}

var _ proxy.Object = (*Node)(nil)

// NewNode returns an empty node. name is only used in error messages.
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		attrs:    make(map[string]any),
		methods:  make(map[string]*Method),
		items:    make(map[any]any),
		failures: make(map[string][]error),
		sticky:   make(map[string]error),
	}
}

// With sets attribute name and returns n for chaining.
func (n *Node) With(name string, value any) *Node {
	n.attrs[name] = value
	return n
}

// WithMethod registers a callable member.
func (n *Node) WithMethod(name string, fn MethodFunc) *Node {
	n.methods[name] = &Method{owner: n, name: name, fn: fn}
	return n
}

// WithItem sets the element under key.
func (n *Node) WithItem(key, value any) *Node {
	n.items[key] = value
	return n
}

// WithElements sets what Iterate yields.
func (n *Node) WithElements(elems ...any) *Node {
	n.elements = elems
	return n
}

// WithCall sets the behaviour of invoking the node itself.
func (n *Node) WithCall(fn MethodFunc) *Node {
	n.call = fn
	return n
}

// FailNext queues errs to be returned, in order, by the next calls of op on
// member before the operation succeeds. member is the attribute or method
// name, the fmt.Sprint of an item key, or "" for Invoke and Iterate on the
// node itself.
func (n *Node) FailNext(op, member string, errs ...error) *Node {
	key := failureKey(op, member)
	n.failures[key] = append(n.failures[key], errs...)
	return n
}

// Busy queues times busy failures for op on member.
func (n *Node) Busy(op, member string, times int) *Node {
	for i := 0; i < times; i++ {
		n.FailNext(op, member, hresult.New(hresult.RPC_E_SERVERCALL_RETRYLATER, "application is busy"))
	}
	return n
}

// FailAlways makes every call of op on member return err.
func (n *Node) FailAlways(op, member string, err error) *Node {
	n.sticky[failureKey(op, member)] = err
	return n
}

// Attr returns the current value of attribute name.
func (n *Node) Attr(name string) any {
	return n.attrs[name]
}

// Item returns the current element under key.
func (n *Node) Item(key any) any {
	return n.items[key]
}

// Method returns the registered method name, or nil.
func (n *Node) Method(name string) *Method {
	return n.methods[name]
}

// Calls returns every recorded call, including calls on n's methods.
func (n *Node) Calls() []Call {
	out := make([]Call, len(n.calls))
	copy(out, n.calls)
	return out
}

// Count returns how many times op was called on member.
func (n *Node) Count(op, member string) int {
	count := 0
	for _, c := range n.calls {
		if c.Op == op && c.Member == member {
			count++
		}
	}
	return count
}

// Closed returns how many iterators of n were closed.
func (n *Node) Closed() int {
	return n.closed
}

func (n *Node) GetAttribute(name string) (any, error) {
	n.record(proxy.OpGetAttribute, name, nil)
	if err := n.failure(proxy.OpGetAttribute, name); err != nil {
		return nil, err
	}
	if m, ok := n.methods[name]; ok {
		return m, nil
	}
	v, ok := n.attrs[name]
	if !ok {
		return nil, hresult.New(hresult.DISP_E_UNKNOWNNAME, fmt.Sprintf("%s has no member %s", n.Name, name))
	}
	return v, nil
}

func (n *Node) SetAttribute(name string, value any) error {
	n.record(proxy.OpSetAttribute, name, []any{value})
	if err := n.failure(proxy.OpSetAttribute, name); err != nil {
		return err
	}
	n.attrs[name] = value
	return nil
}

func (n *Node) GetItem(key any) (any, error) {
	member := fmt.Sprint(key)
	n.record(proxy.OpGetItem, member, []any{key})
	if err := n.failure(proxy.OpGetItem, member); err != nil {
		return nil, err
	}
	v, ok := n.items[key]
	if !ok {
		return nil, hresult.New(hresult.DISP_E_EXCEPTION, fmt.Sprintf("%s has no item %v", n.Name, key))
	}
	return v, nil
}

func (n *Node) SetItem(key any, value any) error {
	member := fmt.Sprint(key)
	n.record(proxy.OpSetItem, member, []any{key, value})
	if err := n.failure(proxy.OpSetItem, member); err != nil {
		return err
	}
	n.items[key] = value
	return nil
}

func (n *Node) Invoke(args ...any) (any, error) {
	n.record(proxy.OpInvoke, "", args)
	if err := n.failure(proxy.OpInvoke, ""); err != nil {
		return nil, err
	}
	if n.call == nil {
		return nil, proxy.ErrNotSupported
	}
	return n.call(args...)
}

func (n *Node) Iterate() (proxy.Iterator, error) {
	n.record(proxy.OpIterate, "", nil)
	if err := n.failure(proxy.OpIterate, ""); err != nil {
		return nil, err
	}
	elems := make([]any, len(n.elements))
	copy(elems, n.elements)
	return &iterator{owner: n, elems: elems}, nil
}

func (n *Node) record(op, member string, args []any) {
	n.calls = append(n.calls, Call{Op: op, Member: member, Args: args})
}

func (n *Node) failure(op, member string) error {
	key := failureKey(op, member)
	if queue := n.failures[key]; len(queue) > 0 {
		n.failures[key] = queue[1:]
		return queue[0]
	}
	return n.sticky[key]
}

func failureKey(op, member string) string {
	return op + "\x00" + member
}

// Method is a callable member of a Node. Its invocations are recorded on
// the owning node with Op "invoke" and Member set to the method name.
type Method struct {
	owner *Node
	name  string
	fn    MethodFunc
}

var _ proxy.Object = (*Method)(nil)

func (m *Method) Invoke(args ...any) (any, error) {
	m.owner.record(proxy.OpInvoke, m.name, args)
	if err := m.owner.failure(proxy.OpInvoke, m.name); err != nil {
		return nil, err
	}
	return m.fn(args...)
}

func (m *Method) GetAttribute(string) (any, error) { return nil, proxy.ErrNotSupported }
func (m *Method) SetAttribute(string, any) error   { return proxy.ErrNotSupported }
func (m *Method) GetItem(any) (any, error)         { return nil, proxy.ErrNotSupported }
func (m *Method) SetItem(any, any) error           { return proxy.ErrNotSupported }

func (m *Method) Iterate() (proxy.Iterator, error) { return nil, proxy.ErrNotSupported }

type iterator struct {
	owner *Node
	elems []any
	pos   int
}

func (it *iterator) Next() (any, bool, error) {
	if it.pos >= len(it.elems) {
		return nil, false, nil
	}
	v := it.elems[it.pos]
	it.pos++
	return v, true, nil
}

func (it *iterator) Close() error {
	it.owner.closed++
	return nil
}
