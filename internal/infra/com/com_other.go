//go:build !windows

package com

import (
	"errors"
	"fmt"
)

// Connect is only available on Windows.
func Connect(progID string) (*Session, error) {
	return nil, fmt.Errorf("attach to %s: %w", progID, errors.ErrUnsupported)
}
