package com

import (
	"fmt"
	"math/big"
	"time"

	ole "github.com/go-ole/go-ole"
	"github.com/vietddude/acadcom/internal/infra/proxy"
)

// argShape says how an argument is marshalled into a VARIANT.
type argShape int

const (
	// shapeNative values are handed to go-ole unchanged.
	shapeNative argShape = iota
	// shapeObject is a Dispatch, sent as its IDispatch.
	shapeObject
	// shapeInt is a Go int, sent as VT_I4.
	shapeInt
	// shapeDoubles is a []float64, sent as a SAFEARRAY of VT_R8.
	shapeDoubles
	// shapeVariants is a []any, sent as a SAFEARRAY of VT_VARIANT.
	shapeVariants
)

// dispatcher is implemented by objects that own an IDispatch.
type dispatcher interface {
	dispatch() *ole.IDispatch
}

// boundMethod is implemented by members that can only be invoked.
type boundMethod interface {
	methodName() string
}

// classifyArg decides how v is marshalled, or rejects it. go-ole panics on
// types outside its fixed list, so everything it does not know is rejected
// here with ErrNotSupported.
func classifyArg(v any) (argShape, error) {
	switch val := v.(type) {
	case dispatcher:
		return shapeObject, nil
	case boundMethod:
		return 0, fmt.Errorf("method %s passed as a value: %w", val.methodName(), proxy.ErrNotSupported)
	case proxy.NamedArg:
		return 0, fmt.Errorf("named argument %s: %w", val.Name, proxy.ErrNotSupported)
	case int:
		return shapeInt, nil
	case []float64:
		return shapeDoubles, nil
	case []any:
		for i, e := range val {
			if err := checkElement(e); err != nil {
				return 0, fmt.Errorf("array element %d: %w", i, err)
			}
		}
		return shapeVariants, nil
	case nil,
		bool, *bool,
		int8, *int8, uint8, *uint8,
		int16, *int16, uint16, *uint16,
		int32, *int32, uint32, *uint32,
		int64, *int64, uint64, *uint64,
		*int, uint, *uint,
		float32, *float32, float64, *float64,
		string, *string,
		time.Time, *big.Int,
		*ole.IDispatch, *ole.VARIANT,
		[]byte, []string:
		return shapeNative, nil
	default:
		return 0, fmt.Errorf("argument type %T: %w", v, proxy.ErrNotSupported)
	}
}

// checkElement reports whether v can be stored in a VT_VARIANT array.
func checkElement(v any) error {
	switch v.(type) {
	case nil, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, string, dispatcher:
		return nil
	default:
		return fmt.Errorf("element type %T: %w", v, proxy.ErrNotSupported)
	}
}
