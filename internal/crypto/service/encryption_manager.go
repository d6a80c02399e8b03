package service

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/juju/clock"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
)

// versionKey is a derived key together with the cipher built from it.
type versionKey struct {
	raw  []byte
	aead AEAD
}

// EncryptionManager encrypts and decrypts versioned envelopes under keys derived from a
// single master passphrase. Keys are derived lazily, cached per version and never
// discarded by rotation, so data written under any earlier version stays readable.
//
// The key cache, the version metadata and the current version are guarded by one
// RWMutex. Cached-key lookups take the read lock; derivation and every mutation take
// the write lock.
type EncryptionManager struct {
	mu             sync.RWMutex
	passphrase     []byte
	currentVersion uint
	keys           map[uint]*versionKey
	// probes holds keys derived for version bytes that have not authenticated yet.
	// They are never used for legacy trials nor reported by KeyInfo.
	probes   map[uint]*versionKey
	metadata map[uint]cryptoDomain.KeyVersion

	deriver KeyDeriver
	clock   clock.Clock
	logger  *slog.Logger
}

// Option configures an EncryptionManager.
type Option func(*EncryptionManager)

// WithKeyDeriver replaces the default Argon2id deriver.
func WithKeyDeriver(deriver KeyDeriver) Option {
	return func(m *EncryptionManager) {
		m.deriver = deriver
	}
}

// WithClock sets the time source used for version metadata.
func WithClock(clk clock.Clock) Option {
	return func(m *EncryptionManager) {
		m.clock = clk
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *EncryptionManager) {
		m.logger = logger
	}
}

// NewEncryptionManager derives and caches the key for initialVersion and makes it current.
// The passphrase is copied; the caller may zero its own copy afterwards.
func NewEncryptionManager(
	passphrase []byte,
	initialVersion uint,
	opts ...Option,
) (*EncryptionManager, error) {
	if len(passphrase) == 0 {
		return nil, cryptoDomain.ErrInvalidPassphrase
	}
	if err := cryptoDomain.ValidateVersion(initialVersion); err != nil {
		return nil, err
	}

	m := &EncryptionManager{
		passphrase:     slices.Clone(passphrase),
		currentVersion: initialVersion,
		keys:           make(map[uint]*versionKey),
		probes:         make(map[uint]*versionKey),
		metadata:       make(map[uint]cryptoDomain.KeyVersion),
		clock:          clock.WallClock,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.deriver == nil {
		m.deriver = NewArgon2KDF(DefaultKDFParams())
	}

	if _, err := m.keyLocked(initialVersion); err != nil {
		m.Close()
		return nil, err
	}
	m.metadata[initialVersion] = cryptoDomain.KeyVersion{
		Version:   initialVersion,
		CreatedAt: m.clock.Now().UTC(),
	}

	return m, nil
}

// CurrentVersion returns the version used by Encrypt.
func (m *EncryptionManager) CurrentVersion() uint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentVersion
}

// Encrypt seals plaintext under the current version's key and returns a versioned envelope.
func (m *EncryptionManager) Encrypt(plaintext []byte) (string, error) {
	version, key, err := m.currentKey()
	if err != nil {
		return "", err
	}
	return seal(version, key, plaintext)
}

// EncryptString is Encrypt for string values.
func (m *EncryptionManager) EncryptString(plaintext string) (string, error) {
	return m.Encrypt([]byte(plaintext))
}

// Decrypt opens an envelope in either wire format.
//
// The versioned interpretation is tried first: byte 0 is taken as a claimed version and
// the rest is opened with that version's key. Only a verified tag confirms the claim.
// Otherwise the payload is treated as a legacy envelope and opened against every cached
// key, most recent version first. A forged or coincidental header byte never selects
// the wrong key.
func (m *EncryptionManager) Decrypt(envelope string) ([]byte, error) {
	raw, err := cryptoDomain.DecodeEnvelope(envelope)
	if err != nil {
		return nil, err
	}

	if _, plaintext, ok := m.openVersioned(raw); ok {
		return plaintext, nil
	}

	for _, key := range m.cachedKeysDescending() {
		if plaintext, err := key.aead.Open(raw); err == nil {
			return plaintext, nil
		}
	}

	return nil, cryptoDomain.ErrDecryptionFailed
}

// EncryptedVersion returns the version an envelope was sealed under. It reports false for
// malformed input and for any payload whose versioned interpretation does not
// authenticate, which includes genuine legacy envelopes.
func (m *EncryptionManager) EncryptedVersion(envelope string) (uint, bool) {
	raw, err := cryptoDomain.DecodeEnvelope(envelope)
	if err != nil {
		return 0, false
	}

	version, plaintext, ok := m.openVersioned(raw)
	cryptoDomain.Zero(plaintext)
	return version, ok
}

// RotateKey makes newVersion current. It returns false, without changing anything, when
// newVersion is not greater than the current version, does not fit the envelope header,
// or its key cannot be derived. Keys of earlier versions stay cached.
func (m *EncryptionManager) RotateKey(newVersion uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if newVersion <= m.currentVersion {
		m.logger.Warn("key rotation rejected",
			slog.Uint64("current_version", uint64(m.currentVersion)),
			slog.Uint64("requested_version", uint64(newVersion)),
		)
		return false
	}
	if err := cryptoDomain.ValidateVersion(newVersion); err != nil {
		m.logger.Warn("key rotation rejected",
			slog.Uint64("requested_version", uint64(newVersion)),
			slog.Any("error", err),
		)
		return false
	}
	if _, err := m.keyLocked(newVersion); err != nil {
		m.logger.Error("failed to derive key for rotation",
			slog.Uint64("requested_version", uint64(newVersion)),
			slog.Any("error", err),
		)
		return false
	}

	now := m.clock.Now().UTC()
	previous := m.metadata[m.currentVersion]
	previous.Version = m.currentVersion
	previous.RotatedAt = &now
	m.metadata[m.currentVersion] = previous

	m.metadata[newVersion] = cryptoDomain.KeyVersion{
		Version:   newVersion,
		CreatedAt: now,
	}
	m.currentVersion = newVersion

	m.logger.Info("key rotated",
		slog.Uint64("previous_version", uint64(previous.Version)),
		slog.Uint64("current_version", uint64(newVersion)),
	)
	return true
}

// AddOldKeyVersion pre-populates the cache for version without touching the current
// version. Calling it for a cached version is a no-op.
func (m *EncryptionManager) AddOldKeyVersion(version uint) error {
	if err := cryptoDomain.ValidateVersion(version); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.keys[version]; ok {
		return nil
	}
	if _, err := m.keyLocked(version); err != nil {
		return err
	}
	m.recordSeenLocked(version)
	return nil
}

// RestoreKeyVersion caches the key for kv.Version and adopts its persisted metadata.
func (m *EncryptionManager) RestoreKeyVersion(kv cryptoDomain.KeyVersion) error {
	if err := cryptoDomain.ValidateVersion(kv.Version); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.keyLocked(kv.Version); err != nil {
		return err
	}
	m.metadata[kv.Version] = kv
	return nil
}

// ReEncrypt decrypts envelope (versioned or legacy) and seals the plaintext under
// targetVersion's key, deriving it if needed. The current version is not changed.
func (m *EncryptionManager) ReEncrypt(envelope string, targetVersion uint) (string, error) {
	if err := cryptoDomain.ValidateVersion(targetVersion); err != nil {
		return "", err
	}

	plaintext, err := m.Decrypt(envelope)
	if err != nil {
		return "", err
	}
	defer cryptoDomain.Zero(plaintext)

	key, err := m.key(targetVersion)
	if err != nil {
		return "", err
	}
	return seal(targetVersion, key, plaintext)
}

// ReEncryptCurrent re-encrypts envelope under the current version.
func (m *EncryptionManager) ReEncryptCurrent(envelope string) (string, error) {
	return m.ReEncrypt(envelope, m.CurrentVersion())
}

// Fingerprint returns the public fingerprint of version's key. An uncached version is
// derived into the probe set, so it is not listed by KeyInfo until it is used.
func (m *EncryptionManager) Fingerprint(version uint) (string, error) {
	if err := cryptoDomain.ValidateVersion(version); err != nil {
		return "", err
	}

	key, _, err := m.claimedKey(version)
	if err != nil {
		return "", err
	}
	return KeyFingerprint(key.raw)
}

// KeyInfo returns a snapshot of the current version, the cached versions (ascending)
// and their metadata.
func (m *EncryptionManager) KeyInfo() cryptoDomain.KeyInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := make([]uint, 0, len(m.keys))
	for version := range m.keys {
		versions = append(versions, version)
	}
	slices.Sort(versions)

	metadata := make(map[uint]cryptoDomain.KeyVersion, len(m.metadata))
	for version, kv := range m.metadata {
		if kv.RotatedAt != nil {
			rotatedAt := *kv.RotatedAt
			kv.RotatedAt = &rotatedAt
		}
		metadata[version] = kv
	}

	return cryptoDomain.KeyInfo{
		CurrentVersion:    m.currentVersion,
		AvailableVersions: versions,
		Metadata:          metadata,
	}
}

// Close zeroes the passphrase and every cached key. The manager is unusable afterwards.
func (m *EncryptionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cryptoDomain.Zero(m.passphrase)
	m.passphrase = nil
	for _, key := range m.keys {
		cryptoDomain.Zero(key.raw)
	}
	for _, key := range m.probes {
		cryptoDomain.Zero(key.raw)
	}
	clear(m.keys)
	clear(m.probes)
}

// currentKey returns the current version and its key as one consistent pair.
func (m *EncryptionManager) currentKey() (uint, *versionKey, error) {
	m.mu.RLock()
	version := m.currentVersion
	key, ok := m.keys[version]
	m.mu.RUnlock()
	if ok {
		return version, key, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	version = m.currentVersion
	key, err := m.keyLocked(version)
	if err != nil {
		return 0, nil, err
	}
	return version, key, nil
}

// key returns version's cached key, deriving and caching it on a miss.
func (m *EncryptionManager) key(version uint) (*versionKey, error) {
	m.mu.RLock()
	key, ok := m.keys[version]
	m.mu.RUnlock()
	if ok {
		return key, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.keyLocked(version)
	if err != nil {
		return nil, err
	}
	m.recordSeenLocked(version)
	return key, nil
}

// keyLocked returns version's key, deriving it on a miss. m.mu must be held for writing.
func (m *EncryptionManager) keyLocked(version uint) (*versionKey, error) {
	if key, ok := m.keys[version]; ok {
		return key, nil
	}
	if key, ok := m.probes[version]; ok {
		delete(m.probes, version)
		m.keys[version] = key
		return key, nil
	}

	key, err := m.deriveLocked(version)
	if err != nil {
		return nil, err
	}
	m.keys[version] = key
	return key, nil
}

// deriveLocked runs the KDF for version. m.mu must be held for writing.
func (m *EncryptionManager) deriveLocked(version uint) (*versionKey, error) {
	raw, err := m.deriver.Derive(m.passphrase, version)
	if err != nil {
		return nil, err
	}

	aead, err := NewAESGCM(raw)
	if err != nil {
		cryptoDomain.Zero(raw)
		return nil, err
	}

	m.logger.Debug("derived key", slog.Uint64("version", uint64(version)))
	return &versionKey{raw: raw, aead: aead}, nil
}

// recordSeenLocked records first-seen metadata for a version that has none.
func (m *EncryptionManager) recordSeenLocked(version uint) {
	if _, ok := m.metadata[version]; ok {
		return
	}
	m.metadata[version] = cryptoDomain.KeyVersion{
		Version:   version,
		CreatedAt: m.clock.Now().UTC(),
	}
}

// openVersioned performs the versioned trial decryption. A claimed version that is not
// cached is derived into the probe set and promoted to the key cache only once its tag
// verifies.
func (m *EncryptionManager) openVersioned(raw []byte) (uint, []byte, bool) {
	version, payload, ok := cryptoDomain.SplitVersioned(raw)
	if !ok {
		return 0, nil, false
	}

	key, confirmed, err := m.claimedKey(version)
	if err != nil {
		return 0, nil, false
	}

	plaintext, err := key.aead.Open(payload)
	if err != nil {
		return 0, nil, false
	}

	if !confirmed {
		m.promote(version)
	}
	return version, plaintext, true
}

// claimedKey returns the key for a claimed version and whether it is a confirmed one.
func (m *EncryptionManager) claimedKey(version uint) (*versionKey, bool, error) {
	m.mu.RLock()
	if key, ok := m.keys[version]; ok {
		m.mu.RUnlock()
		return key, true, nil
	}
	if key, ok := m.probes[version]; ok {
		m.mu.RUnlock()
		return key, false, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if key, ok := m.keys[version]; ok {
		return key, true, nil
	}
	if key, ok := m.probes[version]; ok {
		return key, false, nil
	}

	key, err := m.deriveLocked(version)
	if err != nil {
		return nil, false, err
	}
	m.probes[version] = key
	return key, false, nil
}

// promote moves an authenticated probe key into the key cache.
func (m *EncryptionManager) promote(version uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if key, ok := m.probes[version]; ok {
		delete(m.probes, version)
		m.keys[version] = key
	}
	m.recordSeenLocked(version)
}

// cachedKeysDescending snapshots the confirmed keys, most recent version first.
func (m *EncryptionManager) cachedKeysDescending() []*versionKey {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := make([]uint, 0, len(m.keys))
	for version := range m.keys {
		versions = append(versions, version)
	}
	slices.Sort(versions)
	slices.Reverse(versions)

	keys := make([]*versionKey, 0, len(versions))
	for _, version := range versions {
		keys = append(keys, m.keys[version])
	}
	return keys
}

// seal encrypts plaintext with key and encodes a versioned envelope.
func seal(version uint, key *versionKey, plaintext []byte) (string, error) {
	return cryptoDomain.EncodeEnvelope(version, key.aead.Seal(plaintext))
}
