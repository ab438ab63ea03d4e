package base32768

import (
	"errors"
	"fmt"
	"unicode/utf16"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// KindCodePoint reports a code unit outside the base32768 alphabet.
	KindCodePoint Kind = "CodePoint"
	// KindEndMarker reports a short (end-of-stream) code point that is
	// followed by more input.
	KindEndMarker Kind = "EndMarker"
	// KindPadding reports final padding bits that are not all 1.
	KindPadding Kind = "Padding"
	// KindUsage reports misuse of the API, such as writing after Close.
	KindUsage Kind = "Usage"
)

// Error is the codec's structured error type.
//
// Value carries the offending code unit for KindCodePoint and the
// left-over padding bits for KindPadding.
type Error struct {
	Kind    Kind
	Value   uint16
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ErrUnexpectedEndMarker is returned when a short code point is not the
// last code point of the input.
var ErrUnexpectedEndMarker error = &Error{
	Kind:    KindEndMarker,
	Message: "base32768: end-of-stream code point encountered mid-stream",
}

// ErrClosed is returned by writes to a closed Encoder.
var ErrClosed error = &Error{Kind: KindUsage, Message: "base32768: encoder is closed"}

func invalidCodePoint(cp uint16) error {
	r := rune(cp)
	if utf16.IsSurrogate(r) {
		r = '�'
	}
	return &Error{
		Kind:    KindCodePoint,
		Value:   cp,
		Message: fmt.Sprintf("base32768: non-base32768 code point encountered: %#x (%q)", cp, r),
	}
}

func invalidPadding(bits uint16) error {
	return &Error{
		Kind:    KindPadding,
		Value:   bits,
		Message: fmt.Sprintf("base32768: invalid padding used for end-of-stream: expected least-significant bits of %b to be all-1", bits),
	}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// ValueOf returns the Value of a structured error, and false if err is not one.
func ValueOf(err error) (uint16, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.Value, true
}
