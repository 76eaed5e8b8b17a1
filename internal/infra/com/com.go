// Package com binds the proxy's Object interface to a live automation
// server through IDispatch, using go-ole.
//
// Properties and methods share one namespace in IDispatch. GetAttribute
// first tries a property read; when the server answers that the member is
// not a property, or that it needs arguments, the member is returned as a
// callable Method instead.
//
// COM objects are apartment-threaded: Connect locks the calling goroutine
// to its OS thread, and every object it hands out must be used on that
// goroutine until Session.Close. Every object reference handed out is
// owned by the Session and released by Close.
package com

import (
	"sync"

	"github.com/vietddude/acadcom/internal/core/hresult"
	"github.com/vietddude/acadcom/internal/infra/proxy"
)

// DISP_E_BADPARAMCOUNT is returned by a property read on a method that
// takes arguments.
const DISP_E_BADPARAMCOUNT hresult.HRESULT = 0x8002000E

// Session is an attached automation server.
type Session struct {
	// Root is the application object.
	Root proxy.Object

	refs  *refs
	close func()
}

// NewSession returns a session over root. close runs once, on Close, after
// every tracked reference has been released.
func NewSession(root proxy.Object, close func()) *Session {
	return &Session{Root: root, refs: &refs{}, close: close}
}

// Close releases every object reference handed out by the session and
// uninitialises COM on the calling thread.
func (s *Session) Close() {
	if s.refs != nil {
		s.refs.releaseAll()
	}
	if s.close != nil {
		s.close()
		s.close = nil
	}
}

type releaser interface {
	Release()
}

// refs owns the COM references of a session.
type refs struct {
	mu    sync.Mutex
	items []releaser
}

func (r *refs) track(x releaser) {
	r.mu.Lock()
	r.items = append(r.items, x)
	r.mu.Unlock()
}

// releaseAll releases in reverse order of acquisition, so children go
// before the objects they were read from.
func (r *refs) releaseAll() {
	r.mu.Lock()
	items := r.items
	r.items = nil
	r.mu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		items[i].Release()
	}
}

func (r *refs) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// isMethod reports whether a failed property read means the member is a
// method.
func isMethod(code hresult.HRESULT) bool {
	return code == hresult.DISP_E_MEMBERNOTFOUND || code == DISP_E_BADPARAMCOUNT
}
