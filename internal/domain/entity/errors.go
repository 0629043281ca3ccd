package entity

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError marks a malformed wallet or token identifier. It is raised
// before any collaborator is contacted.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// NotFoundError marks a terminal "nothing there" condition: a token the
// wallet does not hold, or an empty liquidation selection. It is distinct
// from UpstreamError so callers can render "nothing to do" instead of
// "something broke".
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return e.What + " not found"
}

// UpstreamError marks a collaborator call that failed with no fallback value
// available.
type UpstreamError struct {
	Collaborator string
	Err          error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Collaborator, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// ValidateAddress checks that s looks like a base58-encoded 32-byte key.
// field names the parameter in the returned ValidationError.
func ValidateAddress(field, s string) error {
	if len(s) < 32 || len(s) > 44 {
		return &ValidationError{Field: field, Value: s, Reason: "length out of range"}
	}
	for _, r := range s {
		if !strings.ContainsRune(base58Alphabet, r) {
			return &ValidationError{Field: field, Value: s, Reason: "not base58"}
		}
	}
	return nil
}
