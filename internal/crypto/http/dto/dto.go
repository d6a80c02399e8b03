// Package dto provides data transfer objects for the key management HTTP API.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	customValidation "github.com/allisson/rotavault/internal/validation"
)

// RotateKeyRequest asks for a rotation to Version.
type RotateKeyRequest struct {
	Version *uint `json:"version"`
}

// Validate checks that a version is given and fits the envelope header.
func (r *RotateKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Version, validation.NotNil, customValidation.KeyVersion),
	)
}

// KeyVersionResponse describes one key version.
type KeyVersionResponse struct {
	Version     uint       `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	RotatedAt   *time.Time `json:"rotated_at,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	Active      bool       `json:"active"`
}

// KeyInfoResponse describes the key state of the running service.
type KeyInfoResponse struct {
	CurrentVersion    uint                 `json:"current_version"`
	AvailableVersions []uint               `json:"available_versions"`
	Versions          []KeyVersionResponse `json:"versions"`
}

// RotateKeyResponse is returned after a successful rotation.
type RotateKeyResponse struct {
	Rotated        bool `json:"rotated"`
	CurrentVersion uint `json:"current_version"`
}

// MapKeyInfoToResponse converts a key info snapshot. Versions follow AvailableVersions order.
func MapKeyInfoToResponse(info cryptoDomain.KeyInfo) KeyInfoResponse {
	versions := make([]KeyVersionResponse, 0, len(info.AvailableVersions))
	for _, version := range info.AvailableVersions {
		kv, ok := info.Metadata[version]
		if !ok {
			kv = cryptoDomain.KeyVersion{Version: version}
		}
		versions = append(versions, KeyVersionResponse{
			Version:     version,
			CreatedAt:   kv.CreatedAt,
			RotatedAt:   kv.RotatedAt,
			Fingerprint: kv.Fingerprint,
			Active:      version == info.CurrentVersion,
		})
	}

	available := info.AvailableVersions
	if available == nil {
		available = []uint{}
	}
	return KeyInfoResponse{
		CurrentVersion:    info.CurrentVersion,
		AvailableVersions: available,
		Versions:          versions,
	}
}
