package validation

import (
	"fmt"

	dErrors "credguard/pkg/domain-errors"
)

// Body limits
const (
	// MaxErrorBodySize caps how much of a failed response is read for error
	// normalization.
	MaxErrorBodySize = 64 * 1024

	// MaxResponseBodySize caps a successful JSON response body (8 MB).
	MaxResponseBodySize = 8 << 20

	// MaxUploadMemory is the multipart memory budget of the mock backend (32 MB).
	MaxUploadMemory = 32 << 20
)

// Identifier limits
const (
	// MaxIdentifierLength bounds exchange, credential and connection ids used in URL paths.
	MaxIdentifierLength = 512

	// MaxWalletDIDLength bounds the wallet DID form field.
	MaxWalletDIDLength = 2048
)

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckIdentifier validates a path identifier: present and bounded.
func CheckIdentifier(fieldName, value string) error {
	if value == "" {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("%s is required", fieldName))
	}
	return CheckStringLength(fieldName, value, MaxIdentifierLength)
}
