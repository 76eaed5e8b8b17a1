package acad

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFloat parses a number typed at the command line. Both "," and "."
// are accepted as the decimal separator.
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

// ParseInt parses an integer typed at the command line.
func ParseInt(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return v, nil
}
