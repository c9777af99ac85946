package parser

import (
	"errors"
	"fmt"
)

// ErrorKind classifies decoding failures.
type ErrorKind string

const (
	// ErrorKind_MalformedCalldata: an offset, length or selector read fell
	// outside the buffer, or the buffer is not valid hex.
	ErrorKind_MalformedCalldata ErrorKind = "MalformedCalldata"
	// ErrorKind_UnsupportedType: the codec does not implement an ABI type.
	ErrorKind_UnsupportedType ErrorKind = "UnsupportedType"
	// ErrorKind_UnrecognizedSelector: nothing matched the 4-byte selector.
	ErrorKind_UnrecognizedSelector ErrorKind = "UnrecognizedSelector"
	// ErrorKind_ABIResolutionFailure: every resolver strategy failed or timed out.
	ErrorKind_ABIResolutionFailure ErrorKind = "ABIResolutionFailure"
	// ErrorKind_RecursionDepthExceeded: embedded calls nest deeper than allowed.
	ErrorKind_RecursionDepthExceeded ErrorKind = "RecursionDepthExceeded"
)

// Sentinels for use with errors.Is. Matching compares kinds only.
var (
	ErrMalformedCalldata      = &DecodeError{Kind: ErrorKind_MalformedCalldata}
	ErrUnsupportedType        = &DecodeError{Kind: ErrorKind_UnsupportedType}
	ErrUnrecognizedSelector   = &DecodeError{Kind: ErrorKind_UnrecognizedSelector}
	ErrABIResolutionFailure   = &DecodeError{Kind: ErrorKind_ABIResolutionFailure}
	ErrRecursionDepthExceeded = &DecodeError{Kind: ErrorKind_RecursionDepthExceeded}
)

// DecodeError is the error type returned by every decoding entry point.
type DecodeError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`

	cause error
}

func NewDecodeError(kind ErrorKind, format string, args ...interface{}) *DecodeError {
	return &DecodeError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapDecodeError builds a DecodeError of the given kind whose details carry
// the cause's message. The cause stays reachable through errors.Unwrap.
func WrapDecodeError(kind ErrorKind, cause error, format string, args ...interface{}) *DecodeError {
	e := NewDecodeError(kind, format, args...)
	if cause != nil {
		e.Details = cause.Error()
		e.cause = cause
	}
	return e
}

func (e *DecodeError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.cause
}

func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first DecodeError in err's chain, or an
// empty kind.
func KindOf(err error) ErrorKind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
