//go:build windows

package com

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

// go-ole only builds SAFEARRAYs of bytes and strings. Coordinates are
// SAFEARRAYs of doubles and mixed arrays are SAFEARRAYs of VARIANTs, so
// both are built through oleaut32 directly. The returned variants own their
// array; VARIANT.Clear destroys it.
var (
	oleaut32                  = windows.NewLazySystemDLL("oleaut32.dll")
	procSafeArrayCreateVector = oleaut32.NewProc("SafeArrayCreateVector")
	procSafeArrayPutElement   = oleaut32.NewProc("SafeArrayPutElement")
	procSafeArrayDestroy      = oleaut32.NewProc("SafeArrayDestroy")
)

// doubleArray returns a VT_ARRAY|VT_R8 variant holding vals.
func doubleArray(vals []float64) (*ole.VARIANT, error) {
	sa, err := createVector(ole.VT_R8, len(vals))
	if err != nil {
		return nil, err
	}
	for i := range vals {
		if err := putElement(sa, i, unsafe.Pointer(&vals[i])); err != nil {
			procSafeArrayDestroy.Call(sa)
			return nil, err
		}
	}
	v := ole.NewVariant(ole.VT_ARRAY|ole.VT_R8, int64(sa))
	return &v, nil
}

// variantArray returns a VT_ARRAY|VT_VARIANT variant holding vals.
// SafeArrayPutElement copies each element, so temporary strings are freed
// here and object references are AddRef'd by the array.
func variantArray(vals []any) (*ole.VARIANT, error) {
	sa, err := createVector(ole.VT_VARIANT, len(vals))
	if err != nil {
		return nil, err
	}
	for i, e := range vals {
		elem, owned, err := elementVariant(e)
		if err != nil {
			procSafeArrayDestroy.Call(sa)
			return nil, fmt.Errorf("array element %d: %w", i, err)
		}
		err = putElement(sa, i, unsafe.Pointer(&elem))
		if owned {
			_ = elem.Clear()
		}
		if err != nil {
			procSafeArrayDestroy.Call(sa)
			return nil, err
		}
	}
	v := ole.NewVariant(ole.VT_ARRAY|ole.VT_VARIANT, int64(sa))
	return &v, nil
}

// elementVariant builds the VARIANT for one array element. owned reports
// whether the variant holds memory the caller must clear.
func elementVariant(e any) (ole.VARIANT, bool, error) {
	if err := checkElement(e); err != nil {
		return ole.VARIANT{}, false, err
	}
	switch val := e.(type) {
	case nil:
		return ole.NewVariant(ole.VT_NULL, 0), false, nil
	case bool:
		if val {
			return ole.NewVariant(ole.VT_BOOL, 0xffff), false, nil
		}
		return ole.NewVariant(ole.VT_BOOL, 0), false, nil
	case float32:
		return ole.NewVariant(ole.VT_R8, int64(math.Float64bits(float64(val)))), false, nil
	case float64:
		return ole.NewVariant(ole.VT_R8, int64(math.Float64bits(val))), false, nil
	case string:
		bstr := ole.SysAllocStringLen(val)
		return ole.NewVariant(ole.VT_BSTR, int64(uintptr(unsafe.Pointer(bstr)))), true, nil
	case dispatcher:
		return ole.NewVariant(ole.VT_DISPATCH, int64(uintptr(unsafe.Pointer(val.dispatch())))), false, nil
	case int:
		return ole.NewVariant(ole.VT_I4, int64(val)), false, nil
	case int8:
		return ole.NewVariant(ole.VT_I4, int64(val)), false, nil
	case int16:
		return ole.NewVariant(ole.VT_I4, int64(val)), false, nil
	case int32:
		return ole.NewVariant(ole.VT_I4, int64(val)), false, nil
	case uint8:
		return ole.NewVariant(ole.VT_I4, int64(val)), false, nil
	case uint16:
		return ole.NewVariant(ole.VT_I4, int64(val)), false, nil
	case int64:
		return ole.NewVariant(ole.VT_I8, val), false, nil
	case uint32:
		return ole.NewVariant(ole.VT_I8, int64(val)), false, nil
	case uint:
		return ole.NewVariant(ole.VT_UI8, int64(val)), false, nil
	case uint64:
		return ole.NewVariant(ole.VT_UI8, int64(val)), false, nil
	}
	return ole.VARIANT{}, false, fmt.Errorf("element type %T not handled", e)
}

func createVector(vt ole.VT, n int) (uintptr, error) {
	sa, _, _ := procSafeArrayCreateVector.Call(uintptr(vt), 0, uintptr(n))
	if sa == 0 {
		return 0, errors.New("SafeArrayCreateVector failed")
	}
	return sa, nil
}

func putElement(sa uintptr, i int, elem unsafe.Pointer) error {
	index := int32(i)
	hr, _, _ := procSafeArrayPutElement.Call(sa, uintptr(unsafe.Pointer(&index)), uintptr(elem))
	if hr != 0 {
		return ole.NewError(hr)
	}
	return nil
}
