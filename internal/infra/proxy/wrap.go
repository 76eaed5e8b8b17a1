package proxy

import "fmt"

// maybeWrap is the single place that decides what counts as part of the
// foreign graph: any Object result, including callables, is wrapped with
// p's settings, as are Objects inside array results. Everything else passes
// through unchanged.
func (p *Proxy) maybeWrap(v any) any {
	switch obj := v.(type) {
	case *Proxy:
		return obj
	case Object:
		return p.child(obj)
	case []any:
		out := make([]any, len(obj))
		for i, e := range obj {
			out[i] = p.maybeWrap(e)
		}
		return out
	default:
		return v
	}
}

// unwrap replaces a *Proxy with the object it wraps, so the foreign graph
// never receives a proxy. Slices of arguments are unwrapped element-wise.
func unwrap(v any) any {
	switch val := v.(type) {
	case *Proxy:
		return val.target
	case NamedArg:
		return NamedArg{Name: val.Name, Value: unwrap(val.Value)}
	case []any:
		return unwrapArgs(val)
	default:
		return v
	}
}

func unwrapArgs(args []any) []any {
	if args == nil {
		return nil
	}
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = unwrap(a)
	}
	return out
}

// memberOf renders an item key for logs and errors.
func memberOf(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case *Proxy, Object:
		return "<object>"
	default:
		return fmt.Sprint(k)
	}
}
