package dto

import (
	"encoding/base64"
	"strconv"
	"time"

	secretsDomain "github.com/allisson/rotavault/internal/secrets/domain"
)

// SecretMetadataResponse is returned after storing a secret. It never carries the value.
type SecretMetadataResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   uint      `json:"version"`
	Legacy    bool      `json:"legacy,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SecretValueResponse is returned when reading a secret.
// SECURITY: Value is plaintext (base64) and must only travel over TLS.
type SecretValueResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Value   string `json:"value"`
	Version uint   `json:"version"`
	Legacy  bool   `json:"legacy,omitempty"`
}

// VersionReportResponse describes how stored secrets are spread across key versions.
type VersionReportResponse struct {
	TotalSecrets             int            `json:"total_secrets"`
	CurrentEncryptionVersion uint           `json:"current_encryption_version"`
	VersionDistribution      map[string]int `json:"version_distribution"`
	LegacyFormatCount        int            `json:"legacy_format_count"`
	NeedsMigration           int            `json:"needs_migration"`
}

// MigrationReportResponse summarizes a migration run.
type MigrationReportResponse struct {
	TargetVersion  uint      `json:"target_version"`
	TotalSecrets   int       `json:"total_secrets"`
	Migrated       int       `json:"migrated"`
	Failed         int       `json:"failed"`
	AlreadyCurrent int       `json:"already_current"`
	Errors         []string  `json:"errors"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	DurationMS     int64     `json:"duration_ms"`
}

// MapSecretToMetadataResponse converts a stored secret to its metadata response.
func MapSecretToMetadataResponse(secret *secretsDomain.Secret) SecretMetadataResponse {
	return SecretMetadataResponse{
		ID:        secret.ID.String(),
		Name:      secret.Name,
		Version:   secret.KeyVersion,
		Legacy:    secret.Legacy,
		UpdatedAt: secret.UpdatedAt,
	}
}

// MapSecretToValueResponse converts a retrieved secret to a response including its value.
// The caller still owns secret.Plaintext and must zero it.
func MapSecretToValueResponse(secret *secretsDomain.Secret) SecretValueResponse {
	return SecretValueResponse{
		ID:      secret.ID.String(),
		Name:    secret.Name,
		Value:   base64.StdEncoding.EncodeToString(secret.Plaintext),
		Version: secret.KeyVersion,
		Legacy:  secret.Legacy,
	}
}

// MapVersionReportToResponse converts a version report. Distribution keys become decimal strings.
func MapVersionReportToResponse(report *secretsDomain.VersionReport) VersionReportResponse {
	distribution := make(map[string]int, len(report.VersionDistribution))
	for version, count := range report.VersionDistribution {
		distribution[strconv.FormatUint(uint64(version), 10)] = count
	}
	return VersionReportResponse{
		TotalSecrets:             report.TotalSecrets,
		CurrentEncryptionVersion: report.CurrentEncryptionVersion,
		VersionDistribution:      distribution,
		LegacyFormatCount:        report.LegacyFormatCount,
		NeedsMigration:           report.NeedsMigration,
	}
}

// MapMigrationReportToResponse converts a migration report.
func MapMigrationReportToResponse(report *secretsDomain.MigrationReport) MigrationReportResponse {
	errs := report.Errors
	if errs == nil {
		errs = []string{}
	}
	return MigrationReportResponse{
		TargetVersion:  report.TargetVersion,
		TotalSecrets:   report.TotalSecrets,
		Migrated:       report.Migrated,
		Failed:         report.Failed,
		AlreadyCurrent: report.AlreadyCurrent,
		Errors:         errs,
		StartTime:      report.StartTime,
		EndTime:        report.EndTime,
		DurationMS:     report.Duration().Milliseconds(),
	}
}
