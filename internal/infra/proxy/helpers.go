package proxy

import "fmt"

// Call reads method off obj and invokes it with args.
func Call(obj Object, method string, args ...any) (any, error) {
	m, err := obj.GetAttribute(method)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", method, err)
	}
	callable, ok := m.(Object)
	if !ok {
		return nil, fmt.Errorf("%s is not callable (%T)", method, m)
	}
	return callable.Invoke(args...)
}

// Attr reads attribute name off obj and asserts its type.
func Attr[T any](obj Object, name string) (T, error) {
	var zero T
	v, err := obj.GetAttribute(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("attribute %s: unexpected type %T", name, v)
	}
	return t, nil
}

// ObjectAttr reads an attribute that must be a graph node.
func ObjectAttr(obj Object, name string) (Object, error) {
	return Attr[Object](obj, name)
}

// Float reads a numeric attribute as float64. Automation surfaces return
// lengths as doubles and counts as 16 or 32 bit integers.
func Float(obj Object, name string) (float64, error) {
	v, err := obj.GetAttribute(name)
	if err != nil {
		return 0, err
	}
	f, err := ToFloat(v)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", name, err)
	}
	return f, nil
}

// Int reads a numeric attribute as int.
func Int(obj Object, name string) (int, error) {
	f, err := Float(obj, name)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// ToFloat converts any Go numeric value to float64.
func ToFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

// ToFloats converts a foreign array of numbers, e.g. a coordinate array.
func ToFloats(v any) ([]float64, error) {
	switch arr := v.(type) {
	case []float64:
		out := make([]float64, len(arr))
		copy(out, arr)
		return out, nil
	case []any:
		out := make([]float64, len(arr))
		for i, e := range arr {
			f, err := ToFloat(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not a numeric array: %T", v)
	}
}
