// Package domain defines core domain models and errors for secrets.
package domain

import (
	"github.com/allisson/rotavault/internal/errors"
)

// Secret-specific error definitions.
var (
	// ErrSecretNotFound indicates no secret is stored under the requested name.
	ErrSecretNotFound = errors.Wrap(errors.ErrNotFound, "secret not found")

	// ErrInvalidSecretName indicates an empty or oversized secret name.
	ErrInvalidSecretName = errors.Wrap(errors.ErrInvalidInput, "invalid secret name")
)
