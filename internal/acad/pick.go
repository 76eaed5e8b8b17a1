package acad

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/vietddude/acadcom/internal/infra/proxy"
)

// aliases maps lower-case filter words to entity class names.
var aliases = map[string]string{
	"line":     KindLine,
	"l":        KindLine,
	"acdbline": KindLine,

	"pline":        KindPolyline,
	"polyline":     KindPolyline,
	"pl":           KindPolyline,
	"acdbpolyline": KindPolyline,

	"block":              KindBlockReference,
	"blockreference":     KindBlockReference,
	"bl":                 KindBlockReference,
	"blockref":           KindBlockReference,
	"acdbblockreference": KindBlockReference,

	"arc":     KindArc,
	"a":       KindArc,
	"acdbarc": KindArc,

	"mleader":     KindMLeader,
	"multileader": KindMLeader,
	"acdbmleader": KindMLeader,

	"mline":     KindMline,
	"ml":        KindMline,
	"acdbmline": KindMline,
}

// ParseFilter turns a space separated list of type aliases into class
// names. An empty filter or "all" yields nil, meaning no filtering.
// Unknown words are ignored.
func ParseFilter(filter string) []string {
	words := strings.Fields(strings.ToLower(filter))
	if len(words) == 0 || slices.Contains(words, "all") {
		return nil
	}

	var kinds []string
	for _, w := range words {
		if kind, ok := aliases[w]; ok && !slices.Contains(kinds, kind) {
			kinds = append(kinds, kind)
		}
	}
	if kinds == nil {
		// Only unknown words: nothing can match.
		return []string{}
	}
	return kinds
}

// PickObjects asks the user to select objects on screen in doc and returns
// those whose class passes filter (see ParseFilter).
func PickObjects(doc proxy.Object, filter, prompt string) ([]proxy.Object, error) {
	utility, err := proxy.ObjectAttr(doc, "Utility")
	if err != nil {
		return nil, fmt.Errorf("read utility: %w", err)
	}
	sets, err := proxy.ObjectAttr(doc, "SelectionSets")
	if err != nil {
		return nil, fmt.Errorf("read selection sets: %w", err)
	}

	v, err := proxy.Call(sets, "Add", "acadcom-"+uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("create selection set: %w", err)
	}
	selset, ok := v.(proxy.Object)
	if !ok {
		return nil, fmt.Errorf("create selection set: unexpected result %T", v)
	}

	selection, err := selectOnScreen(utility, selset, prompt)
	if _, derr := proxy.Call(selset, "Delete"); derr != nil {
		slog.Warn("Failed to delete temporary selection set", "error", derr)
	}
	if err != nil {
		return nil, err
	}

	if len(selection) == 0 {
		_, _ = proxy.Call(utility, "Prompt", "Nothing selected\n")
		return nil, ErrNothingSelected
	}

	kinds := ParseFilter(filter)
	if kinds == nil {
		return selection, nil
	}

	var kept []proxy.Object
	for _, item := range selection {
		kind, err := proxy.Attr[string](item, "ObjectName")
		if err != nil {
			return nil, fmt.Errorf("read object name: %w", err)
		}
		if slices.Contains(kinds, kind) {
			kept = append(kept, item)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoMatchingObjects
	}
	return kept, nil
}

func selectOnScreen(utility, selset proxy.Object, prompt string) ([]proxy.Object, error) {
	if prompt != "" {
		if _, err := proxy.Call(utility, "Prompt", prompt); err != nil {
			return nil, fmt.Errorf("prompt: %w", err)
		}
	}
	if _, err := proxy.Call(selset, "SelectOnScreen"); err != nil {
		if isCancel(err) {
			return nil, ErrCanceled
		}
		return nil, fmt.Errorf("select on screen: %w", err)
	}
	return objects(selset)
}

// IsUserAbort reports whether err ends an interactive command without
// being a failure.
func IsUserAbort(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, ErrNothingSelected)
}
