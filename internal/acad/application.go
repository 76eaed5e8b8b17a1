// Package acad is the caller-facing layer over the CAD application's object
// graph: the application façade, selection helpers and interactive prompts.
//
// Everything here takes proxy.Object values, so it runs against the live
// application through a retrying *proxy.Proxy, or against fakegraph in
// tests.
package acad

import (
	"fmt"

	"github.com/vietddude/acadcom/internal/core/config"
	"github.com/vietddude/acadcom/internal/infra/com"
	"github.com/vietddude/acadcom/internal/infra/proxy"
)

// Application is the root "AutoCAD.Application" object.
type Application struct {
	root proxy.Object
}

// New builds the façade over root, wrapping it in a proxy with opts.
func New(root proxy.Object, opts ...proxy.Option) *Application {
	return &Application{root: proxy.Wrap(root, opts...)}
}

// connect attaches to the automation server.
var connect = com.Connect

// Connect attaches to the application named in cfg and wraps it with the
// configured retry policy. The returned func releases the session and must
// be called on the same goroutine.
func Connect(cfg *config.AppConfig, opts ...proxy.Option) (*Application, func(), error) {
	session, err := connect(cfg.Application.ProgID)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]proxy.Option{proxy.WithPolicy(proxy.PolicyFromConfig(cfg.Retry))}, opts...)
	app := New(session.Root, opts...)

	if cfg.Application.IsVisible() {
		if err := app.root.SetAttribute("Visible", true); err != nil {
			session.Close()
			return nil, nil, fmt.Errorf("show application: %w", err)
		}
	}
	return app, session.Close, nil
}

// App returns the application object itself.
func (a *Application) App() proxy.Object { return a.root }

// Documents returns the collection of open documents.
func (a *Application) Documents() (proxy.Object, error) {
	return proxy.ObjectAttr(a.root, "Documents")
}

// ActiveDocument returns the document that has focus.
func (a *Application) ActiveDocument() (proxy.Object, error) {
	return proxy.ObjectAttr(a.root, "ActiveDocument")
}

// Preferences returns the application settings object.
func (a *Application) Preferences() (proxy.Object, error) {
	return proxy.ObjectAttr(a.root, "Preferences")
}

// Ping checks that the application still answers.
func (a *Application) Ping() error {
	_, err := a.root.GetAttribute("Name")
	return err
}

// Info describes the attached application.
type Info struct {
	Name      string
	Version   string
	Active    string
	Documents []string
}

// Info reads the application name, version and open document names.
func (a *Application) Info() (*Info, error) {
	name, err := proxy.Attr[string](a.root, "Name")
	if err != nil {
		return nil, fmt.Errorf("read application name: %w", err)
	}
	version, err := proxy.Attr[string](a.root, "Version")
	if err != nil {
		return nil, fmt.Errorf("read application version: %w", err)
	}

	info := &Info{Name: name, Version: version}

	docs, err := a.Documents()
	if err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	for v, err := range proxy.All(docs) {
		if err != nil {
			return nil, fmt.Errorf("iterate documents: %w", err)
		}
		doc, ok := v.(proxy.Object)
		if !ok {
			continue
		}
		docName, err := proxy.Attr[string](doc, "Name")
		if err != nil {
			return nil, fmt.Errorf("read document name: %w", err)
		}
		info.Documents = append(info.Documents, docName)
	}

	if len(info.Documents) > 0 {
		active, err := a.ActiveDocument()
		if err != nil {
			return nil, fmt.Errorf("read active document: %w", err)
		}
		if info.Active, err = proxy.Attr[string](active, "Name"); err != nil {
			return nil, fmt.Errorf("read active document name: %w", err)
		}
	}

	return info, nil
}
