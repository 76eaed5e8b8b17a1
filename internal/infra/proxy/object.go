// Package proxy implements the resilient object proxy over the CAD
// application's automation object graph.
//
// The foreign graph is reached through the Object interface. A Proxy wraps an
// Object, forwards every operation to it, and retries operations that fail
// because the application is busy. Results that are themselves Objects come
// back wrapped, so resilience carries through the whole reachable graph:
//
//	app := proxy.Wrap(root)
//	docs, err := app.GetAttribute("Documents") // *Proxy
//	count, err := proxy.Attr[int32](docs, "Count")
//
// # Retry
//
// Every get/set/invoke, and acquiring an iterator, runs through one retry
// loop driven by a Policy. On a busy status code the cumulative delay grows by
// Policy.StepDelay and the goroutine sleeps for the new cumulative value, so
// waits get longer each time. The loop gives up once the cumulative delay has
// reached Policy.MaxTotalDelay. There is no attempt limit.
//
// Any other failure is returned unchanged on the first attempt.
//
// # Threading
//
// The application is single-session. A Proxy and everything it returns must
// be used from one goroutine.
package proxy

import (
	"errors"
	"iter"
)

// ErrNotSupported is returned by Object implementations for operations the
// underlying node cannot perform, e.g. GetItem on a bound method.
var ErrNotSupported = errors.New("operation not supported by object")

// Object is a node of the foreign object graph: a collection, an entity, a
// document, or a bound method. *Proxy implements Object as well, so callers
// can take an Object and be handed either.
type Object interface {
	// GetAttribute reads a property. Methods are returned as callable
	// Objects.
	GetAttribute(name string) (any, error)

	// SetAttribute writes a property.
	SetAttribute(name string, value any) error

	// GetItem reads a collection element by index or key.
	GetItem(key any) (any, error)

	// SetItem writes a collection element.
	SetItem(key any, value any) error

	// Invoke calls the object. For a bound method this runs the method; for
	// an object it calls its default member. Keyword arguments are passed as
	// NamedArg values.
	Invoke(args ...any) (any, error)

	// Iterate returns an iterator over the object's elements.
	Iterate() (Iterator, error)
}

// Iterator walks the elements of a foreign collection. It is finite and not
// restartable.
type Iterator interface {
	// Next returns the next element. ok is false once the collection is
	// exhausted.
	Next() (value any, ok bool, err error)

	// Close releases the underlying enumerator.
	Close() error
}

// NamedArg is a keyword argument to Invoke.
type NamedArg struct {
	Name  string
	Value any
}

// All adapts obj's iterator into a range-over-func sequence. Iteration
// stops after the first error is yielded.
func All(obj Object) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		it, err := obj.Iterate()
		if err != nil {
			yield(nil, err)
			return
		}
		defer it.Close()

		for {
			v, ok, err := it.Next()
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Collect returns every element of obj.
func Collect(obj Object) ([]any, error) {
	var out []any
	for v, err := range All(obj) {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
