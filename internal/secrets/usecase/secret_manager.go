package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"golang.org/x/sync/errgroup"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	apperrors "github.com/allisson/rotavault/internal/errors"
	secretsDomain "github.com/allisson/rotavault/internal/secrets/domain"
)

// reportConcurrency bounds the concurrent version probes of VersionReport.
const reportConcurrency = 8

// secretManager implements the SecretManager interface.
type secretManager struct {
	encryption Encryptor
	secretRepo SecretRepository
	clock      clock.Clock
	logger     *slog.Logger
}

// Store encrypts value under the current key version and saves it under name, replacing
// any existing value. The returned secret carries metadata only.
func (s *secretManager) Store(
	ctx context.Context,
	name string,
	value []byte,
) (*secretsDomain.Secret, error) {
	if err := secretsDomain.ValidateName(name); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	secret, err := s.secretRepo.Get(ctx, name)
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		secret = &secretsDomain.Secret{
			ID:        uuid.Must(uuid.NewV7()),
			Name:      name,
			CreatedAt: now,
		}
	case err != nil:
		return nil, err
	}

	envelope, err := s.encryption.Encrypt(value)
	if err != nil {
		return nil, err
	}

	secret.Envelope = envelope
	secret.UpdatedAt = now
	secret.Plaintext = nil
	if err := s.secretRepo.Put(ctx, secret); err != nil {
		return nil, err
	}

	s.fillVersion(secret)
	return secret, nil
}

// Retrieve reads and decrypts a secret by name.
func (s *secretManager) Retrieve(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	if err := secretsDomain.ValidateName(name); err != nil {
		return nil, err
	}

	secret, err := s.secretRepo.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.encryption.Decrypt(secret.Envelope)
	if err != nil {
		return nil, err
	}

	secret.Plaintext = plaintext
	s.fillVersion(secret)
	return secret, nil
}

// MigrateToKeyVersion re-encrypts every stored secret under targetVersion.
func (s *secretManager) MigrateToKeyVersion(
	ctx context.Context,
	targetVersion uint,
) (*secretsDomain.MigrationReport, error) {
	if err := cryptoDomain.ValidateVersion(targetVersion); err != nil {
		return nil, err
	}

	report := &secretsDomain.MigrationReport{
		TargetVersion: targetVersion,
		Errors:        []string{},
		StartTime:     s.clock.Now().UTC(),
	}

	secrets, err := s.secretRepo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list secrets for migration")
	}
	report.TotalSecrets = len(secrets)

	s.logger.Info("secret migration started",
		slog.Uint64("target_version", uint64(targetVersion)),
		slog.Int("total_secrets", report.TotalSecrets),
	)

	for _, secret := range secrets {
		if version, ok := s.encryption.EncryptedVersion(secret.Envelope); ok && version == targetVersion {
			report.AlreadyCurrent++
			continue
		}

		if err := s.migrateSecret(ctx, secret, targetVersion); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", secret.Name, err))
			s.logger.Warn("secret migration failed",
				slog.String("name", secret.Name),
				slog.Any("error", err),
			)
			continue
		}
		report.Migrated++
	}

	report.EndTime = s.clock.Now().UTC()

	s.logger.Info("secret migration finished",
		slog.Uint64("target_version", uint64(targetVersion)),
		slog.Int("migrated", report.Migrated),
		slog.Int("failed", report.Failed),
		slog.Int("already_current", report.AlreadyCurrent),
	)
	return report, nil
}

// migrateSecret re-encrypts one secret and saves it.
func (s *secretManager) migrateSecret(
	ctx context.Context,
	secret *secretsDomain.Secret,
	targetVersion uint,
) error {
	envelope, err := s.encryption.ReEncrypt(secret.Envelope, targetVersion)
	if err != nil {
		return err
	}

	updated := *secret
	updated.Envelope = envelope
	updated.UpdatedAt = s.clock.Now().UTC()
	return s.secretRepo.Put(ctx, &updated)
}

// VersionReport tallies the key versions of every stored secret.
func (s *secretManager) VersionReport(ctx context.Context) (*secretsDomain.VersionReport, error) {
	secrets, err := s.secretRepo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list secrets for version report")
	}

	type detected struct {
		version uint
		ok      bool
	}
	results := make([]detected, len(secrets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportConcurrency)
	for i, secret := range secrets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			version, ok := s.encryption.EncryptedVersion(secret.Envelope)
			results[i] = detected{version: version, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	current := s.encryption.CurrentVersion()
	report := &secretsDomain.VersionReport{
		TotalSecrets:             len(secrets),
		CurrentEncryptionVersion: current,
		VersionDistribution:      make(map[uint]int),
	}
	for _, r := range results {
		if !r.ok {
			report.LegacyFormatCount++
			report.NeedsMigration++
			continue
		}
		report.VersionDistribution[r.version]++
		if r.version != current {
			report.NeedsMigration++
		}
	}

	return report, nil
}

// fillVersion records the confirmed key version of secret's envelope.
func (s *secretManager) fillVersion(secret *secretsDomain.Secret) {
	version, ok := s.encryption.EncryptedVersion(secret.Envelope)
	secret.KeyVersion = version
	secret.Legacy = !ok
}

// NewSecretManager creates a new secret manager. A nil clock falls back to the wall clock
// and a nil logger to slog.Default().
func NewSecretManager(
	encryption Encryptor,
	secretRepo SecretRepository,
	clk clock.Clock,
	logger *slog.Logger,
) SecretManager {
	if clk == nil {
		clk = clock.WallClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &secretManager{
		encryption: encryption,
		secretRepo: secretRepo,
		clock:      clk,
		logger:     logger,
	}
}
