package acad

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vietddude/acadcom/internal/core/config"
	"github.com/vietddude/acadcom/internal/core/hresult"
	"github.com/vietddude/acadcom/internal/infra/com"
	"github.com/vietddude/acadcom/internal/infra/proxy"
	"github.com/vietddude/acadcom/internal/infra/proxy/fakegraph"
)

func newApplication() (*fakegraph.Node, *fakegraph.Node) {
	drawing1 := fakegraph.NewNode("Drawing1").With("Name", "Drawing1.dwg")
	plan := fakegraph.NewNode("plan").With("Name", "plan.dwg")
	docs := fakegraph.NewNode("documents").WithElements(drawing1, plan)
	app := fakegraph.NewNode("app").
		With("Name", "AutoCAD").
		With("Version", "24.1s (LMS Tech)").
		With("Documents", docs).
		With("ActiveDocument", plan)
	return app, docs
}

func TestInfo(t *testing.T) {
	root, docs := newApplication()
	app := New(root)

	info, err := app.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	want := &Info{
		Name:      "AutoCAD",
		Version:   "24.1s (LMS Tech)",
		Active:    "plan.dwg",
		Documents: []string{"Drawing1.dwg", "plan.dwg"},
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("Info mismatch (-want +got):\n%s", diff)
	}
	if docs.Closed() != 1 {
		t.Errorf("expected document iterator to be closed, got %d", docs.Closed())
	}
}

func TestInfoNoDocuments(t *testing.T) {
	root := fakegraph.NewNode("app").
		With("Name", "AutoCAD").
		With("Version", "24.1s").
		With("Documents", fakegraph.NewNode("documents"))
	info, err := New(root).Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Active != "" || len(info.Documents) != 0 {
		t.Errorf("expected no documents, got %+v", info)
	}
	if root.Count(proxy.OpGetAttribute, "ActiveDocument") != 0 {
		t.Error("active document must not be read without open documents")
	}
}

func TestNewWrapsRoot(t *testing.T) {
	root, _ := newApplication()
	app := New(root)

	p, ok := app.App().(*proxy.Proxy)
	if !ok || p.Target() != root {
		t.Fatalf("expected root wrapped in a proxy, got %T", app.App())
	}
	doc, err := app.ActiveDocument()
	if err != nil {
		t.Fatalf("ActiveDocument failed: %v", err)
	}
	if _, ok := doc.(*proxy.Proxy); !ok {
		t.Errorf("expected document wrapped in a proxy, got %T", doc)
	}
}

func TestPing(t *testing.T) {
	root, _ := newApplication()
	if err := New(root).Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	dead := hresult.New(0x800706BA, "the RPC server is unavailable")
	root.FailAlways(proxy.OpGetAttribute, "Name", dead)
	if err := New(root).Ping(); !hresult.Is(err, 0x800706BA) {
		t.Errorf("expected RPC failure, got %v", err)
	}
}

type fakeServer struct {
	progID string
	closed int
}

func stubConnect(t *testing.T, root *fakegraph.Node) *fakeServer {
	t.Helper()
	srv := &fakeServer{}
	orig := connect
	connect = func(progID string) (*com.Session, error) {
		srv.progID = progID
		return com.NewSession(root, func() { srv.closed++ }), nil
	}
	t.Cleanup(func() { connect = orig })
	return srv
}

func TestConnectShowsApplication(t *testing.T) {
	root, _ := newApplication()
	srv := stubConnect(t, root)

	app, release, err := Connect(config.Default())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if srv.progID != config.DefaultProgID {
		t.Errorf("expected %s, got %q", config.DefaultProgID, srv.progID)
	}
	if root.Attr("Visible") != true {
		t.Errorf("expected Visible to be set, got %v", root.Attr("Visible"))
	}
	if p, ok := app.App().(*proxy.Proxy); !ok || p.Policy().StepDelay != config.Default().Retry.StepDelay {
		t.Errorf("expected root wrapped with configured policy, got %T", app.App())
	}

	release()
	if srv.closed != 1 {
		t.Errorf("expected release to close the session, got %d", srv.closed)
	}
}

func TestConnectHidden(t *testing.T) {
	root, _ := newApplication()
	stubConnect(t, root)

	cfg := config.Default()
	hidden := false
	cfg.Application.Visible = &hidden

	if _, _, err := Connect(cfg); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if root.Count(proxy.OpSetAttribute, "Visible") != 0 {
		t.Error("Visible must not be written when the application is hidden")
	}
}

func TestConnectShowFailureClosesSession(t *testing.T) {
	root, _ := newApplication()
	denied := hresult.New(0x80070005, "access denied")
	root.FailAlways(proxy.OpSetAttribute, "Visible", denied)
	srv := stubConnect(t, root)

	_, release, err := Connect(config.Default())
	if err == nil || !errors.Is(err, denied) {
		t.Fatalf("expected wrapped show error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "show application") {
		t.Errorf("unexpected error text %q", err)
	}
	if release != nil {
		t.Error("expected no release func on failure")
	}
	if srv.closed != 1 {
		t.Errorf("expected session closed once, got %d", srv.closed)
	}
}

func TestConnectFailure(t *testing.T) {
	orig := connect
	refused := errors.New("server not registered")
	connect = func(string) (*com.Session, error) { return nil, refused }
	t.Cleanup(func() { connect = orig })

	if _, _, err := Connect(config.Default()); !errors.Is(err, refused) {
		t.Fatalf("expected connect error, got %v", err)
	}
}
