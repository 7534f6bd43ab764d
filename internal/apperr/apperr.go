// Package apperr defines the coded domain errors shared by every feature package.
package apperr

import "errors"

// Kind classifies a domain error for transport mapping.
type Kind int

const (
	KindFailed Kind = iota
	KindInvalidInput
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindAccountState
	KindConflict
)

// Error is a domain failure carrying a client-facing code.
// An empty Code reports failure without a message.
type Error struct {
	Kind Kind
	Code string
}

// New declares a domain error.
func New(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

func (e *Error) Error() string {
	if e.Code == "" {
		return "operation failed"
	}
	return e.Code
}

// Is reports whether a domain error is present anywhere in err's tree.
func Is(err error) bool {
	var target *Error
	return errors.As(err, &target)
}

// KindOf returns the kind of the first domain error found in err's tree.
func KindOf(err error) (Kind, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind, true
	}
	return 0, false
}

// Codes flattens err into the ordered list of non-empty domain codes it carries.
// Joined errors contribute every code.
func Codes(err error) []string {
	codes := make([]string, 0)
	collect(err, &codes)
	return codes
}

func collect(err error, codes *[]string) {
	if err == nil {
		return
	}
	if e, ok := err.(*Error); ok {
		if e.Code != "" {
			*codes = append(*codes, e.Code)
		}
		return
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			collect(inner, codes)
		}
	case interface{ Unwrap() error }:
		collect(x.Unwrap(), codes)
	}
}
