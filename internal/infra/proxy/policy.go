package proxy

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/vietddude/acadcom/internal/core/config"
	"github.com/vietddude/acadcom/internal/core/hresult"
)

// Policy defines retry behavior for foreign calls.
type Policy struct {
	// StepDelay is added to the cumulative delay on every retry.
	StepDelay time.Duration

	// MaxTotalDelay stops retrying once the cumulative delay reaches it.
	MaxTotalDelay time.Duration

	// TransientCodes are the status codes that mean "busy, try again".
	TransientCodes []hresult.HRESULT

	// RetryMemberNotFound also retries DISP_E_MEMBERNOTFOUND and
	// DISP_E_UNKNOWNNAME. Members of a freshly opened document can be
	// missing for a moment; enable this when attaching during startup.
	RetryMemberNotFound bool
}

// DefaultPolicy is used by Wrap when no WithPolicy option is given.
var DefaultPolicy = Policy{
	StepDelay:      100 * time.Millisecond,
	MaxTotalDelay:  10 * time.Second,
	TransientCodes: hresult.BusyCodes,
}

// Validate checks that the policy can terminate.
func (p Policy) Validate() error {
	if p.StepDelay <= 0 {
		return fmt.Errorf("step delay must be positive, got %v", p.StepDelay)
	}
	if p.MaxTotalDelay < 0 {
		return fmt.Errorf("max total delay must not be negative, got %v", p.MaxTotalDelay)
	}
	return nil
}

// Schedule returns the sleeps a call that never stops being busy goes
// through before it fails.
func (p Policy) Schedule() []time.Duration {
	if p.StepDelay <= 0 {
		return nil
	}
	var out []time.Duration
	for delay := time.Duration(0); delay < p.MaxTotalDelay; {
		delay += p.StepDelay
		out = append(out, delay)
	}
	return out
}

// ErrorAction determines how to handle a failed foreign call.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFatal
)

func (a ErrorAction) String() string {
	if a == ActionRetry {
		return "retry"
	}
	return "fatal"
}

// Classify determines the action for err under p.
func (p Policy) Classify(err error) ErrorAction {
	if err == nil {
		return ActionFatal
	}
	// Already exhausted its own retry loop further down the graph.
	var rerr *RetryError
	if errors.As(err, &rerr) {
		return ActionFatal
	}

	code, ok := hresult.FromError(err)
	if !ok {
		return ActionFatal
	}
	if slices.Contains(p.TransientCodes, code) {
		return ActionRetry
	}
	if p.RetryMemberNotFound && code.IsMemberNotFound() {
		return ActionRetry
	}
	return ActionFatal
}

// RetryError is returned when a call was still failing with a transient
// code after the cumulative delay reached the policy's ceiling. It unwraps
// to the last foreign error.
type RetryError struct {
	Op       string
	Member   string
	Attempts int
	Waited   time.Duration
	Err      error
}

func (e *RetryError) Error() string {
	target := e.Op
	if e.Member != "" {
		target = fmt.Sprintf("%s %q", e.Op, e.Member)
	}
	return fmt.Sprintf("%s failed after %d attempts (waited %v): %v", target, e.Attempts, e.Waited, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

// PolicyFromConfig builds the policy described by the retry section of the
// configuration.
func PolicyFromConfig(c config.RetryConfig) Policy {
	return Policy{
		StepDelay:           c.StepDelay,
		MaxTotalDelay:       c.MaxTotalDelay,
		TransientCodes:      c.Codes(),
		RetryMemberNotFound: c.RetryMemberNotFound,
	}
}
