// Package hresult defines the status codes reported by failed calls into the
// CAD application's automation surface.
//
// Foreign calls fail with a 32-bit HRESULT. The proxy only cares about a few
// classes of them:
//   - busy codes, raised while the application is modal or rendering
//   - member-not-found codes, raised while a document is still initialising
//   - DISP_E_EXCEPTION, which the application raises when the user presses
//     Esc at an interactive prompt
package hresult

import (
	"errors"
	"fmt"
)

// HRESULT is a status code of a failed foreign call.
type HRESULT uint32

const (
	// RPC_E_CALL_REJECTED: call was rejected by callee.
	RPC_E_CALL_REJECTED HRESULT = 0x80010001
	// RPC_E_SERVERCALL_RETRYLATER: the application is busy.
	RPC_E_SERVERCALL_RETRYLATER HRESULT = 0x8001010A
	// RPC_E_SERVERCALL_REJECTED: the call was rejected.
	RPC_E_SERVERCALL_REJECTED HRESULT = 0x8001010B

	DISP_E_MEMBERNOTFOUND HRESULT = 0x80020003
	DISP_E_UNKNOWNNAME    HRESULT = 0x80020006
	DISP_E_EXCEPTION      HRESULT = 0x80020009

	// E_KEYWORD_INPUT is raised by GetPoint/GetDistance when the user typed
	// a keyword instead of picking. The text is read with GetInput.
	E_KEYWORD_INPUT HRESULT = 0x80210020
)

// BusyCodes is the superset of busy codes observed across application
// releases.
var BusyCodes = []HRESULT{
	RPC_E_CALL_REJECTED,
	RPC_E_SERVERCALL_RETRYLATER,
	RPC_E_SERVERCALL_REJECTED,
}

var names = map[HRESULT]string{
	RPC_E_CALL_REJECTED:         "RPC_E_CALL_REJECTED",
	RPC_E_SERVERCALL_RETRYLATER: "RPC_E_SERVERCALL_RETRYLATER",
	RPC_E_SERVERCALL_REJECTED:   "RPC_E_SERVERCALL_REJECTED",
	DISP_E_MEMBERNOTFOUND:       "DISP_E_MEMBERNOTFOUND",
	DISP_E_UNKNOWNNAME:          "DISP_E_UNKNOWNNAME",
	DISP_E_EXCEPTION:            "DISP_E_EXCEPTION",
	E_KEYWORD_INPUT:             "E_KEYWORD_INPUT",
}

// String returns the symbolic name, or the hex value for unknown codes.
func (h HRESULT) String() string {
	if name, ok := names[h]; ok {
		return name
	}
	return fmt.Sprintf("0x%08X", uint32(h))
}

// Int32 returns the signed form, as printed by most automation clients
// (e.g. DISP_E_EXCEPTION is -2147352567).
func (h HRESULT) Int32() int32 {
	return int32(h)
}

// Failed reports whether the severity bit is set.
func (h HRESULT) Failed() bool {
	return h&0x80000000 != 0
}

// IsMemberNotFound reports whether h means the member does not exist (yet).
func (h HRESULT) IsMemberNotFound() bool {
	return h == DISP_E_MEMBERNOTFOUND || h == DISP_E_UNKNOWNNAME
}

// Error is a status-coded foreign call failure.
type Error struct {
	Code        HRESULT
	Description string
}

// New returns an *Error for code with an optional description.
func New(code HRESULT, description string) *Error {
	return &Error{Code: code, Description: description}
}

func (e *Error) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("foreign call failed: %s", e.Code)
	}
	return fmt.Sprintf("foreign call failed: %s: %s", e.Code, e.Description)
}

// coder is satisfied by go-ole's *ole.OleError.
type coder interface {
	Code() uintptr
}

// FromError extracts the status code from the first error in err's chain
// that carries one.
func FromError(err error) (HRESULT, bool) {
	if err == nil {
		return 0, false
	}
	var herr *Error
	if errors.As(err, &herr) {
		return herr.Code, true
	}
	var c coder
	if errors.As(err, &c) {
		return HRESULT(uint32(c.Code())), true
	}
	return 0, false
}

// Is reports whether err carries code.
func Is(err error, code HRESULT) bool {
	got, ok := FromError(err)
	return ok && got == code
}

// Parse accepts decimal (signed or unsigned) or 0x-prefixed hex.
func Parse(s string) (HRESULT, error) {
	var v int64
	if _, err := fmt.Sscan(s, &v); err != nil {
		return 0, fmt.Errorf("invalid status code %q: %w", s, err)
	}
	if v < -(1<<31) || v > 1<<32-1 {
		return 0, fmt.Errorf("status code %q out of range", s)
	}
	return HRESULT(uint32(v)), nil
}
