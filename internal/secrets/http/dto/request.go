// Package dto provides data transfer objects for the secrets HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/rotavault/internal/validation"
)

// PutSecretRequest contains the value for storing a secret. The name comes from the URL.
type PutSecretRequest struct {
	// Value is the base64-encoded plaintext.
	Value string `json:"value"`
}

// Validate checks that the value is present and valid base64 within the size limit.
func (r *PutSecretRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Value,
			validation.Required,
			customValidation.SecretValue,
		),
	)
}

// MigrateSecretsRequest selects the key version to migrate to. A nil TargetVersion means
// the current version.
type MigrateSecretsRequest struct {
	TargetVersion *uint `json:"target_version"`
}

// Validate checks that the target version fits the envelope header.
func (r *MigrateSecretsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.TargetVersion, customValidation.KeyVersion),
	)
}
