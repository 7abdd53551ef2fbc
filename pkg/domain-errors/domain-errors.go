package domainerrors

import "errors"

// Code represents a failure category independent of transport layer.
// Orchestrators switch on these codes; the user-facing text lives in Message.
type Code string

const (
	// Input gate failures. These block submission before any network call.
	CodeInvalidInput    Code = "invalid_input"
	CodeMissingInput    Code = "missing_input"
	CodeMissingWalletID Code = "missing_wallet_id"

	// Backend interaction failures.
	CodeTransport         Code = "transport_error"    // request never reached the server or no response
	CodeRemote            Code = "remote_error"       // non-2xx, message from the error normalizer
	CodeMalformedResponse Code = "malformed_response" // 2xx but body does not match the declared shape

	// Workflow outcomes.
	CodeSuperseded   Code = "superseded"
	CodeCancelled    Code = "cancelled"
	CodeTimeout      Code = "timeout"
	CodeInvalidState Code = "invalid_state"
	CodeNotFound     Code = "not_found"
	CodeInternal     Code = "internal_error"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across client, orchestrator and CLI layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost domain error in the chain,
// or CodeInternal for foreign errors. A nil error has no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Message returns the user-facing message for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}
