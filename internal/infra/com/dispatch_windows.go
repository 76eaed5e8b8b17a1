//go:build windows

package com

import (
	"errors"
	"fmt"
	"runtime"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"github.com/vietddude/acadcom/internal/core/hresult"
	"github.com/vietddude/acadcom/internal/infra/proxy"
)

const sFalse = 1

// Connect attaches to a running instance of progID, starting one if none
// is running.
func Connect(progID string) (*Session, error) {
	runtime.LockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			runtime.UnlockOSThread()
			return nil, fmt.Errorf("initialize COM: %w", err)
		}
	}

	unknown, err := oleutil.GetActiveObject(progID)
	if err != nil {
		unknown, err = oleutil.CreateObject(progID)
		if err != nil {
			ole.CoUninitialize()
			runtime.UnlockOSThread()
			return nil, fmt.Errorf("create %s: %w", progID, err)
		}
	}
	defer unknown.Release()

	disp, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		ole.CoUninitialize()
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("query IDispatch of %s: %w", progID, err)
	}

	owned := &refs{}
	root := owned.dispatch(disp)
	return &Session{
		Root: root,
		refs: owned,
		close: func() {
			ole.CoUninitialize()
			runtime.UnlockOSThread()
		},
	}, nil
}

// Dispatch is a proxy.Object over an IDispatch pointer.
type Dispatch struct {
	disp *ole.IDispatch
	refs *refs
}

var _ proxy.Object = (*Dispatch)(nil)

// dispatch wraps disp, taking ownership of one reference to it.
func (r *refs) dispatch(disp *ole.IDispatch) *Dispatch {
	d := &Dispatch{disp: disp, refs: r}
	r.track(d)
	return d
}

func (d *Dispatch) dispatch() *ole.IDispatch { return d.disp }

// Release drops the COM reference. The Dispatch must not be used after.
func (d *Dispatch) Release() {
	if d.disp != nil {
		d.disp.Release()
		d.disp = nil
	}
}

func (d *Dispatch) GetAttribute(name string) (any, error) {
	id, err := d.disp.GetSingleIDOfName(name)
	if err != nil {
		return nil, err
	}

	v, err := d.disp.Invoke(id, ole.DISPATCH_PROPERTYGET)
	if err != nil {
		if code, ok := hresult.FromError(err); ok && isMethod(code) {
			d.disp.AddRef()
			m := &Method{owner: d.disp, id: id, name: name}
			d.refs.track(m)
			return m, nil
		}
		return nil, err
	}
	return d.refs.fromVariant(v)
}

func (d *Dispatch) SetAttribute(name string, value any) error {
	args, cleanup, err := d.refs.convert([]any{value})
	if err != nil {
		return err
	}
	defer cleanup()
	_, err = d.disp.PutProperty(name, args...)
	return err
}

func (d *Dispatch) GetItem(key any) (any, error) {
	args, cleanup, err := d.refs.convert([]any{key})
	if err != nil {
		return nil, err
	}
	defer cleanup()
	v, err := d.disp.CallMethod("Item", args...)
	if err != nil {
		return nil, err
	}
	return d.refs.fromVariant(v)
}

func (d *Dispatch) SetItem(key any, value any) error {
	args, cleanup, err := d.refs.convert([]any{key, value})
	if err != nil {
		return err
	}
	defer cleanup()
	_, err = d.disp.PutProperty("Item", args...)
	return err
}

// Invoke calls the object's default member.
func (d *Dispatch) Invoke(args ...any) (any, error) {
	return d.refs.invoke(d.disp, ole.DISPID_VALUE, ole.DISPATCH_METHOD|ole.DISPATCH_PROPERTYGET, args)
}

func (d *Dispatch) Iterate() (proxy.Iterator, error) {
	v, err := d.disp.GetProperty("_NewEnum")
	if err != nil {
		return nil, err
	}
	defer v.Clear()

	enum, err := v.ToIUnknown().IEnumVARIANT(ole.IID_IEnumVariant)
	if err != nil {
		return nil, err
	}
	return &enumIterator{enum: enum, refs: d.refs}, nil
}

// Method is a member of a dispatch object that must be invoked. It holds
// its own reference to the owner.
type Method struct {
	owner *ole.IDispatch
	id    int32
	name  string
	refs  *refs
}

var _ proxy.Object = (*Method)(nil)

func (m *Method) methodName() string { return m.name }

// Release drops the reference to the owning object.
func (m *Method) Release() {
	if m.owner != nil {
		m.owner.Release()
		m.owner = nil
	}
}

func (m *Method) Invoke(args ...any) (any, error) {
	return m.refs.invoke(m.owner, m.id, ole.DISPATCH_METHOD, args)
}

func (m *Method) GetAttribute(string) (any, error) { return nil, m.unsupported() }
func (m *Method) SetAttribute(string, any) error   { return m.unsupported() }
func (m *Method) GetItem(any) (any, error)         { return nil, m.unsupported() }
func (m *Method) SetItem(any, any) error           { return m.unsupported() }

func (m *Method) Iterate() (proxy.Iterator, error) { return nil, m.unsupported() }

func (m *Method) unsupported() error {
	return fmt.Errorf("method %s: %w", m.name, proxy.ErrNotSupported)
}

type enumIterator struct {
	enum *ole.IEnumVARIANT
	refs *refs
}

func (it *enumIterator) Next() (any, bool, error) {
	item, length, err := it.enum.Next(1)
	if err != nil {
		return nil, false, err
	}
	if length == 0 {
		return nil, false, nil
	}
	v, err := it.refs.fromVariant(&item)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (it *enumIterator) Close() error {
	if it.enum != nil {
		it.enum.Release()
		it.enum = nil
	}
	return nil
}

func (r *refs) invoke(disp *ole.IDispatch, id int32, flags int16, args []any) (any, error) {
	converted, cleanup, err := r.convert(args)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	v, err := disp.Invoke(id, flags, converted...)
	if err != nil {
		return nil, err
	}
	return r.fromVariant(v)
}

// convert turns Go arguments into values go-ole can marshal. cleanup frees
// the SAFEARRAYs built on the way and must run after the call returns.
func (r *refs) convert(args []any) ([]interface{}, func(), error) {
	var temps []*ole.VARIANT
	cleanup := func() {
		for _, t := range temps {
			_ = t.Clear()
		}
	}

	out := make([]interface{}, len(args))
	for i, a := range args {
		shape, err := classifyArg(a)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("argument %d: %w", i, err)
		}

		switch shape {
		case shapeObject:
			out[i] = a.(dispatcher).dispatch()
		case shapeInt:
			out[i] = int32(a.(int))
		case shapeDoubles:
			v, err := doubleArray(a.([]float64))
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("argument %d: %w", i, err)
			}
			temps = append(temps, v)
			out[i] = v
		case shapeVariants:
			v, err := variantArray(a.([]any))
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("argument %d: %w", i, err)
			}
			temps = append(temps, v)
			out[i] = v
		default:
			out[i] = a
		}
	}
	return out, cleanup, nil
}

// fromVariant converts a result VARIANT into a Go value. Object references
// become *Dispatch values owned by r.
func (r *refs) fromVariant(v *ole.VARIANT) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch {
	case v.VT == ole.VT_DISPATCH:
		disp := v.ToIDispatch()
		if disp == nil {
			return nil, nil
		}
		return r.dispatch(disp), nil
	case v.VT&ole.VT_ARRAY != 0:
		defer v.Clear()
		values := v.ToArray().ToValueArray()
		for i, e := range values {
			if disp, ok := e.(*ole.IDispatch); ok {
				values[i] = r.dispatch(disp)
			}
		}
		return values, nil
	case v.VT == ole.VT_EMPTY || v.VT == ole.VT_NULL:
		return nil, nil
	default:
		defer v.Clear()
		return v.Value(), nil
	}
}
