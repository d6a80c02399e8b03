// Package validation provides custom validation rules for request DTOs.
package validation

import (
	"encoding/base64"
	"strings"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	apperrors "github.com/allisson/rotavault/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NoWhitespace validates that a string has no leading or trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// KeyVersion validates that a uint fits the one-byte envelope version header.
var KeyVersion = validation.By(func(value interface{}) error {
	switch v := value.(type) {
	case uint:
		if err := cryptoDomain.ValidateVersion(v); err != nil {
			return validation.NewError("validation_key_version", "must be between 0 and 255")
		}
	case *uint:
		if v == nil {
			return nil
		}
		if err := cryptoDomain.ValidateVersion(*v); err != nil {
			return validation.NewError("validation_key_version", "must be between 0 and 255")
		}
	default:
		return validation.NewError("validation_key_version_type", "must be an unsigned integer")
	}
	return nil
})

// MaxSecretValueBytes bounds the decoded size of a secret value accepted over HTTP.
const MaxSecretValueBytes = 64 << 10

// SecretValue validates a base64 (standard encoding) secret value that decodes to at most
// MaxSecretValueBytes. Empty strings pass so Required reports them.
var SecretValue = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_secret_value_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	if base64.StdEncoding.DecodedLen(len(s)) > MaxSecretValueBytes+2 {
		return validation.NewError("validation_secret_value_size", "must decode to at most 64 KiB")
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return validation.NewError("validation_secret_value_base64", "must be valid base64-encoded data")
	}
	if len(decoded) > MaxSecretValueBytes {
		return validation.NewError("validation_secret_value_size", "must decode to at most 64 KiB")
	}
	return nil
})
