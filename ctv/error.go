package ctv

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of error.
type ErrorCode int

const (
	// ErrMissingSequence indicates a spend was requested for a template
	// without any committed input sequences.
	ErrMissingSequence ErrorCode = iota

	// ErrInputIndex indicates the committed input index does not refer to
	// one of the committed inputs.
	ErrInputIndex

	// ErrOversizedPush indicates a data push (an OP_RETURN payload or the
	// template hash itself) exceeds the maximum script element size.
	ErrOversizedPush

	// ErrInvalidAddress indicates an address output carries an address
	// string that cannot be decoded.
	ErrInvalidAddress

	// ErrAddressMismatch indicates an address output carries an address
	// that belongs to a different network than the one rendering it.
	ErrAddressMismatch

	// ErrTaprootConstruction indicates the single leaf taproot tree could
	// not be finalized, typically because the internal key is not a valid
	// x-only public key.
	ErrTaprootConstruction

	// ErrEncoding indicates a failure while serializing transaction
	// fields.
	ErrEncoding

	// ErrInvalidTemplate indicates a template description is malformed.
	ErrInvalidTemplate

	// ErrUnknownNetwork indicates a template names a network that is not
	// registered.
	ErrUnknownNetwork
)

var errorCodeStrings = map[ErrorCode]string{
	ErrMissingSequence:     "ErrMissingSequence",
	ErrInputIndex:          "ErrInputIndex",
	ErrOversizedPush:       "ErrOversizedPush",
	ErrInvalidAddress:      "ErrInvalidAddress",
	ErrAddressMismatch:     "ErrAddressMismatch",
	ErrTaprootConstruction: "ErrTaprootConstruction",
	ErrEncoding:            "ErrEncoding",
	ErrInvalidTemplate:     "ErrInvalidTemplate",
	ErrUnknownNetwork:      "ErrUnknownNetwork",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error provides a single type for errors that can happen while hashing,
// rendering or spending a template. The caller can use type assertions (or
// errors.As) to inspect ErrorCode and the wrapped Err.
type Error struct {
	ErrorCode   ErrorCode
	Description string
	Err         error
}

func (e Error) Error() string {
	if e.Err != nil {
		return e.Description + ": " + e.Err.Error()
	}
	return e.Description
}

func (e Error) Unwrap() error {
	return e.Err
}

func ctvError(c ErrorCode, desc string, err error) Error {
	return Error{ErrorCode: c, Description: desc, Err: err}
}

// IsError returns whether err is an Error carrying the given code.
func IsError(err error, code ErrorCode) bool {
	var cerr Error
	if !errors.As(err, &cerr) {
		return false
	}
	return cerr.ErrorCode == code
}
