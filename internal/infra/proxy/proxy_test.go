package proxy_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vietddude/acadcom/internal/core/clock"
	"github.com/vietddude/acadcom/internal/core/hresult"
	"github.com/vietddude/acadcom/internal/infra/metrics"
	"github.com/vietddude/acadcom/internal/infra/proxy"
	"github.com/vietddude/acadcom/internal/infra/proxy/fakegraph"
)

var testPolicy = proxy.Policy{
	StepDelay:      100 * time.Millisecond,
	MaxTotalDelay:  300 * time.Millisecond,
	TransientCodes: hresult.BusyCodes,
}

func newProxy(t *testing.T, obj proxy.Object) (*proxy.Proxy, *clock.FakeClock) {
	t.Helper()
	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return proxy.Wrap(obj, proxy.WithPolicy(testPolicy), proxy.WithClock(c), proxy.WithLogger(logger)), c
}

func TestTransparency(t *testing.T) {
	node := fakegraph.NewNode("doc").
		With("Name", "Drawing1.dwg").
		WithItem(0, "first").
		WithMethod("Regen", func(args ...any) (any, error) { return int32(len(args)), nil })
	p, c := newProxy(t, node)

	name, err := p.GetAttribute("Name")
	if err != nil {
		t.Fatalf("GetAttribute failed: %v", err)
	}
	if name != "Drawing1.dwg" {
		t.Errorf("expected Drawing1.dwg, got %v", name)
	}

	if err := p.SetAttribute("Name", "Drawing2.dwg"); err != nil {
		t.Fatalf("SetAttribute failed: %v", err)
	}
	if got := node.Attr("Name"); got != "Drawing2.dwg" {
		t.Errorf("expected attribute to be written through, got %v", got)
	}

	item, err := p.GetItem(0)
	if err != nil || item != "first" {
		t.Errorf("GetItem(0) = (%v, %v), want (first, nil)", item, err)
	}
	if err := p.SetItem(1, "second"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	if got := node.Item(1); got != "second" {
		t.Errorf("expected item to be written through, got %v", got)
	}

	res, err := proxy.Call(p, "Regen", 1, 2)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if res != int32(2) {
		t.Errorf("expected 2, got %v", res)
	}

	if len(c.Sleeps()) != 0 {
		t.Errorf("expected no backoff on first-try success, got %v", c.Sleeps())
	}
}

func TestGraphResultsAreWrapped(t *testing.T) {
	child := fakegraph.NewNode("utility")
	node := fakegraph.NewNode("doc").
		With("Utility", child).
		WithMethod("Save", func(args ...any) (any, error) { return nil, nil })
	p, _ := newProxy(t, node)

	v, err := p.GetAttribute("Utility")
	if err != nil {
		t.Fatalf("GetAttribute failed: %v", err)
	}
	wrapped, ok := v.(*proxy.Proxy)
	if !ok {
		t.Fatalf("expected *proxy.Proxy, got %T", v)
	}
	if wrapped.Target() != child {
		t.Errorf("expected wrapped target to be the child node")
	}

	m, err := p.GetAttribute("Save")
	if err != nil {
		t.Fatalf("GetAttribute failed: %v", err)
	}
	if _, ok := m.(*proxy.Proxy); !ok {
		t.Errorf("expected callable to be wrapped, got %T", m)
	}
}

func TestCallableRetries(t *testing.T) {
	node := fakegraph.NewNode("doc").
		WithMethod("SendCommand", func(args ...any) (any, error) { return "done", nil })
	node.Busy(proxy.OpInvoke, "SendCommand", 2)
	p, c := newProxy(t, node)

	res, err := proxy.Call(p, "SendCommand", "_REGEN ")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if res != "done" {
		t.Errorf("expected done, got %v", res)
	}
	if got := node.Count(proxy.OpInvoke, "SendCommand"); got != 3 {
		t.Errorf("expected 3 invocations, got %d", got)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if diff := cmp.Diff(want, c.Sleeps()); diff != "" {
		t.Errorf("unexpected backoff (-want +got):\n%s", diff)
	}
}

func TestIdempotentRewrap(t *testing.T) {
	node := fakegraph.NewNode("app").With("Visible", true)
	node.Busy(proxy.OpGetAttribute, "Visible", 1)
	p, c := newProxy(t, node)

	double := proxy.Wrap(p)
	if double.Target() != node {
		t.Fatalf("expected double wrap to target the raw node, got %T", double.Target())
	}

	v, err := double.GetAttribute("Visible")
	if err != nil {
		t.Fatalf("GetAttribute failed: %v", err)
	}
	if v != true {
		t.Errorf("expected true, got %v", v)
	}
	if got := node.Count(proxy.OpGetAttribute, "Visible"); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
	if diff := cmp.Diff([]time.Duration{100 * time.Millisecond}, c.Sleeps()); diff != "" {
		t.Errorf("double wrap must not double the backoff (-want +got):\n%s", diff)
	}
}

func TestUnwrapBeforeSend(t *testing.T) {
	other := fakegraph.NewNode("layer")
	var received []any
	node := fakegraph.NewNode("entity").
		WithMethod("Move", func(args ...any) (any, error) {
			received = args
			return nil, nil
		})
	p, _ := newProxy(t, node)
	otherProxy := proxy.Wrap(other)

	if err := p.SetAttribute("Layer", otherProxy); err != nil {
		t.Fatalf("SetAttribute failed: %v", err)
	}
	if node.Attr("Layer") != other {
		t.Errorf("SetAttribute sent %T, want raw node", node.Attr("Layer"))
	}

	if err := p.SetItem(otherProxy, otherProxy); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	if node.Item(other) != other {
		t.Errorf("SetItem sent %T, want raw node", node.Item(other))
	}

	_, err := proxy.Call(p, "Move", otherProxy, proxy.NamedArg{Name: "To", Value: otherProxy}, []any{otherProxy})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if received[0] != other {
		t.Errorf("positional arg sent as %T, want raw node", received[0])
	}
	named, ok := received[1].(proxy.NamedArg)
	if !ok || named.Value != other {
		t.Errorf("named arg sent as %#v, want raw node", received[1])
	}
	nested, ok := received[2].([]any)
	if !ok || nested[0] != other {
		t.Errorf("nested arg sent as %#v, want raw node", received[2])
	}
}

func TestBackoffBound(t *testing.T) {
	busy := hresult.New(hresult.RPC_E_CALL_REJECTED, "rejected")
	node := fakegraph.NewNode("app").FailAlways(proxy.OpGetAttribute, "ActiveDocument", busy)
	p, c := newProxy(t, node)

	_, err := p.GetAttribute("ActiveDocument")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	var rerr *proxy.RetryError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *proxy.RetryError, got %T", err)
	}
	if rerr.Attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", rerr.Attempts)
	}
	if rerr.Waited != 600*time.Millisecond {
		t.Errorf("expected 600ms waited, got %v", rerr.Waited)
	}
	if !errors.Is(err, busy) {
		t.Error("expected the last foreign error to be preserved")
	}
	if !hresult.Is(err, hresult.RPC_E_CALL_REJECTED) {
		t.Error("expected status code to be observable through the retry error")
	}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	if diff := cmp.Diff(want, c.Sleeps()); diff != "" {
		t.Errorf("unexpected backoff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(testPolicy.Schedule(), c.Sleeps()); diff != "" {
		t.Errorf("sleeps should follow Policy.Schedule (-want +got):\n%s", diff)
	}
}

func TestBackoffSucceedsBeforeCeiling(t *testing.T) {
	node := fakegraph.NewNode("app").With("Caption", "AutoCAD")
	node.Busy(proxy.OpGetAttribute, "Caption", 3)
	p, c := newProxy(t, node)

	v, err := p.GetAttribute("Caption")
	if err != nil {
		t.Fatalf("expected success on the last permitted attempt, got %v", err)
	}
	if v != "AutoCAD" {
		t.Errorf("expected AutoCAD, got %v", v)
	}
	if got := c.Slept(); got != 600*time.Millisecond {
		t.Errorf("expected 600ms slept, got %v", got)
	}
}

func TestPermanentPassthrough(t *testing.T) {
	cancel := hresult.New(hresult.DISP_E_EXCEPTION, "canceled by user")
	node := fakegraph.NewNode("utility").
		WithMethod("GetPoint", func(args ...any) (any, error) { return nil, cancel })
	p, c := newProxy(t, node)

	_, err := proxy.Call(p, "GetPoint")
	if err != cancel {
		t.Fatalf("expected the original error unchanged, got %v", err)
	}
	if got := node.Count(proxy.OpInvoke, "GetPoint"); got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}
	if len(c.Sleeps()) != 0 {
		t.Errorf("expected zero delay, got %v", c.Sleeps())
	}
}

func TestPlainErrorPassthrough(t *testing.T) {
	boom := errors.New("boom")
	node := fakegraph.NewNode("doc").FailNext(proxy.OpGetItem, "3", boom)
	p, c := newProxy(t, node)

	if _, err := p.GetItem(3); err != boom {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(c.Sleeps()) != 0 {
		t.Errorf("expected zero delay, got %v", c.Sleeps())
	}
}

func TestTransitiveWrapping(t *testing.T) {
	child := fakegraph.NewNode("doc").With("Name", "Drawing1.dwg")
	child.Busy(proxy.OpGetAttribute, "Name", 1)
	root := fakegraph.NewNode("app").With("ActiveDocument", child)
	root.Busy(proxy.OpGetAttribute, "ActiveDocument", 1)
	p, c := newProxy(t, root)

	doc, err := proxy.ObjectAttr(p, "ActiveDocument")
	if err != nil {
		t.Fatalf("ActiveDocument failed: %v", err)
	}
	name, err := doc.GetAttribute("Name")
	if err != nil {
		t.Fatalf("Name failed: %v", err)
	}
	if name != "Drawing1.dwg" {
		t.Errorf("expected Drawing1.dwg, got %v", name)
	}
	if got := child.Count(proxy.OpGetAttribute, "Name"); got != 2 {
		t.Errorf("expected nested read to be retried, got %d attempts", got)
	}
	if got := len(c.Sleeps()); got != 2 {
		t.Errorf("expected one backoff per level sharing the clock, got %d", got)
	}
}

func TestIterationRewrap(t *testing.T) {
	line := fakegraph.NewNode("line")
	method := fakegraph.NewNode("x").WithMethod("Delete", func(args ...any) (any, error) { return nil, nil }).Method("Delete")
	coll := fakegraph.NewNode("modelspace").WithElements(line, 5, "text", method)
	coll.Busy(proxy.OpIterate, "", 1)
	p, c := newProxy(t, coll)

	elems, err := proxy.Collect(p)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(elems) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(elems))
	}
	if w, ok := elems[0].(*proxy.Proxy); !ok || w.Target() != line {
		t.Errorf("expected element 0 wrapped, got %T", elems[0])
	}
	if elems[1] != 5 || elems[2] != "text" {
		t.Errorf("expected plain values unchanged, got %v %v", elems[1], elems[2])
	}
	if _, ok := elems[3].(*proxy.Proxy); !ok {
		t.Errorf("expected callable element wrapped, got %T", elems[3])
	}
	if coll.Closed() != 1 {
		t.Errorf("expected iterator to be closed once, got %d", coll.Closed())
	}
	if len(c.Sleeps()) != 1 {
		t.Errorf("expected acquiring the iterator to be retried once, got %v", c.Sleeps())
	}
}

func TestIterationStopsEarly(t *testing.T) {
	coll := fakegraph.NewNode("layers").WithElements("0", "Defpoints", "Walls")
	p, _ := newProxy(t, coll)

	var seen []any
	for v, err := range proxy.All(p) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen = append(seen, v)
		if len(seen) == 2 {
			break
		}
	}
	if diff := cmp.Diff([]any{"0", "Defpoints"}, seen); diff != "" {
		t.Errorf("unexpected elements (-want +got):\n%s", diff)
	}
	if coll.Closed() != 1 {
		t.Errorf("expected iterator closed after break, got %d", coll.Closed())
	}
}

func TestMemberNotFoundPolicy(t *testing.T) {
	missing := hresult.New(hresult.DISP_E_MEMBERNOTFOUND, "")

	node := fakegraph.NewNode("doc").With("ModelSpace", "ms").
		FailNext(proxy.OpGetAttribute, "ModelSpace", missing)
	p, c := newProxy(t, node)
	if _, err := p.GetAttribute("ModelSpace"); err != missing {
		t.Fatalf("expected fail-fast by default, got %v", err)
	}
	if len(c.Sleeps()) != 0 {
		t.Errorf("expected no backoff, got %v", c.Sleeps())
	}

	node = fakegraph.NewNode("doc").With("ModelSpace", "ms").
		FailNext(proxy.OpGetAttribute, "ModelSpace", missing)
	lenient := testPolicy
	lenient.RetryMemberNotFound = true
	c = clock.Fake(time.Time{})
	p = proxy.Wrap(node, proxy.WithPolicy(lenient), proxy.WithClock(c))
	v, err := p.GetAttribute("ModelSpace")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if v != "ms" {
		t.Errorf("expected ms, got %v", v)
	}
	if len(c.Sleeps()) != 1 {
		t.Errorf("expected one backoff, got %v", c.Sleeps())
	}
}

func TestWrapInheritsSettings(t *testing.T) {
	node := fakegraph.NewNode("app")
	p, _ := newProxy(t, node)

	if got := proxy.Wrap(p).Policy(); got.MaxTotalDelay != testPolicy.MaxTotalDelay {
		t.Errorf("expected inherited policy, got %+v", got)
	}

	custom := proxy.Policy{StepDelay: time.Second, MaxTotalDelay: time.Second}
	if got := proxy.Wrap(p, proxy.WithPolicy(custom)).Policy(); got.StepDelay != time.Second {
		t.Errorf("expected overridden policy, got %+v", got)
	}
	if got := proxy.Wrap(node).Policy(); got.MaxTotalDelay != proxy.DefaultPolicy.MaxTotalDelay {
		t.Errorf("expected default policy, got %+v", got)
	}
}

func TestRetryMetrics(t *testing.T) {
	counter := metrics.ForeignRetriesTotal.WithLabelValues(proxy.OpSetItem, "RPC_E_SERVERCALL_RETRYLATER")
	before := testutil.ToFloat64(counter)

	node := fakegraph.NewNode("dict")
	node.Busy(proxy.OpSetItem, "key", 2)
	p, _ := newProxy(t, node)

	if err := p.SetItem("key", "value"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("expected 2 retries counted, got %v", got)
	}
}

func TestArrayResultsAreWrapped(t *testing.T) {
	a, b := fakegraph.NewNode("a"), fakegraph.NewNode("b")
	node := fakegraph.NewNode("block").With("Explode", []any{a, 2.5, []any{b}})
	p, _ := newProxy(t, node)

	v, err := p.GetAttribute("Explode")
	if err != nil {
		t.Fatalf("GetAttribute failed: %v", err)
	}
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		t.Fatalf("expected 3-element array, got %#v", v)
	}
	if w, ok := arr[0].(*proxy.Proxy); !ok || w.Target() != a {
		t.Errorf("expected element 0 wrapped, got %T", arr[0])
	}
	if arr[1] != 2.5 {
		t.Errorf("expected plain value unchanged, got %v", arr[1])
	}
	nested, _ := arr[2].([]any)
	if len(nested) != 1 {
		t.Fatalf("expected nested array, got %#v", arr[2])
	}
	if _, ok := nested[0].(*proxy.Proxy); !ok {
		t.Errorf("expected nested element wrapped, got %T", nested[0])
	}
}
