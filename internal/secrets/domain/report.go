package domain

import "time"

// MigrationReport summarizes one run of re-encrypting every stored secret under a target
// key version. Counts always satisfy Migrated + Failed + AlreadyCurrent = TotalSecrets.
type MigrationReport struct {
	TargetVersion  uint
	TotalSecrets   int
	Migrated       int
	Failed         int
	AlreadyCurrent int
	// Errors holds one "<name>: <error>" entry per failed secret.
	Errors    []string
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns how long the migration took.
func (r *MigrationReport) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// VersionReport describes how stored secrets are distributed across key versions.
type VersionReport struct {
	TotalSecrets             int
	CurrentEncryptionVersion uint
	// VersionDistribution counts secrets per confirmed key version.
	VersionDistribution map[uint]int
	// LegacyFormatCount counts secrets whose version could not be confirmed.
	LegacyFormatCount int
	// NeedsMigration counts secrets not sealed under the current version.
	NeedsMigration int
}
