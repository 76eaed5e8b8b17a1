package acad

import (
	"fmt"

	"github.com/vietddude/acadcom/internal/core/geom"
	"github.com/vietddude/acadcom/internal/infra/proxy"
)

// Entity class names as reported by ObjectName.
const (
	KindLine           = "AcDbLine"
	KindPolyline       = "AcDbPolyline"
	KindArc            = "AcDbArc"
	KindMline          = "AcDbMline"
	KindBlockReference = "AcDbBlockReference"
	KindMLeader        = "AcDbMLeader"
)

// SumLength returns the total length of the lines, polylines, arcs and
// multilines in a selection set. Other entities are ignored.
func SumLength(selection proxy.Object) (float64, error) {
	count, err := proxy.Int(selection, "Count")
	if err != nil {
		return 0, fmt.Errorf("read selection count: %w", err)
	}
	if count == 0 {
		return 0, ErrEmptySelection
	}

	items, err := objects(selection)
	if err != nil {
		return 0, err
	}
	return SumLengths(items)
}

// SumLengths is SumLength over already collected entities.
func SumLengths(items []proxy.Object) (float64, error) {
	var total float64
	for _, item := range items {
		l, err := EntityLength(item)
		if err != nil {
			return 0, err
		}
		total += l
	}
	return total, nil
}

// EntityLength returns the length of a linear entity, or 0 for entities
// without one.
func EntityLength(item proxy.Object) (float64, error) {
	kind, err := proxy.Attr[string](item, "ObjectName")
	if err != nil {
		return 0, fmt.Errorf("read object name: %w", err)
	}

	switch kind {
	case KindLine, KindPolyline:
		return proxy.Float(item, "Length")
	case KindArc:
		return proxy.Float(item, "ArcLength")
	case KindMline:
		return mlineLength(item)
	default:
		return 0, nil
	}
}

// mlineLength walks the multiline's vertex triples.
func mlineLength(item proxy.Object) (float64, error) {
	raw, err := item.GetAttribute("Coordinates")
	if err != nil {
		return 0, fmt.Errorf("read multiline coordinates: %w", err)
	}
	flat, err := proxy.ToFloats(raw)
	if err != nil {
		return 0, fmt.Errorf("multiline coordinates: %w", err)
	}
	points, err := geom.Triples(flat)
	if err != nil {
		return 0, fmt.Errorf("multiline coordinates: %w", err)
	}
	return geom.PathLength(points), nil
}

// objects collects the graph elements of a collection.
func objects(coll proxy.Object) ([]proxy.Object, error) {
	var out []proxy.Object
	for v, err := range proxy.All(coll) {
		if err != nil {
			return nil, fmt.Errorf("iterate selection: %w", err)
		}
		if obj, ok := v.(proxy.Object); ok {
			out = append(out, obj)
		}
	}
	return out, nil
}
