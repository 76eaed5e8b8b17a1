package acad

import "errors"

var (
	// ErrCanceled means the user pressed Esc at a prompt.
	ErrCanceled = errors.New("canceled by user")

	// ErrNothingSelected means an on-screen selection came back empty.
	ErrNothingSelected = errors.New("nothing selected")

	// ErrNoMatchingObjects means objects were selected but none passed the
	// type filter.
	ErrNoMatchingObjects = errors.New("no selected objects match the filter")

	// ErrEmptySelection means a selection set has no members.
	ErrEmptySelection = errors.New("selection set is empty")
)
