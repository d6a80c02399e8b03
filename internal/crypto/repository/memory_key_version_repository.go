package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	cryptoDomain "github.com/allisson/rotavault/internal/crypto/domain"
	apperrors "github.com/allisson/rotavault/internal/errors"
)

// MemoryKeyVersionRepository keeps key-version rows in process memory. It pairs with the
// in-memory secret store, where nothing outlives the process anyway.
type MemoryKeyVersionRepository struct {
	mu       sync.RWMutex
	versions map[uint]cryptoDomain.KeyVersion
}

// Create stores a new key version. Creating an existing version is a conflict.
func (m *MemoryKeyVersionRepository) Create(_ context.Context, kv *cryptoDomain.KeyVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.versions[kv.Version]; ok {
		return apperrors.Wrapf(apperrors.ErrConflict, "key version %d already exists", kv.Version)
	}
	m.versions[kv.Version] = cloneKeyVersion(*kv)
	return nil
}

// Update writes the rotated_at timestamp of an existing key version.
func (m *MemoryKeyVersionRepository) Update(_ context.Context, kv *cryptoDomain.KeyVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.versions[kv.Version]
	if !ok {
		return apperrors.Wrapf(cryptoDomain.ErrKeyVersionNotFound, "version %d", kv.Version)
	}
	stored.RotatedAt = copyTime(kv.RotatedAt)
	m.versions[kv.Version] = stored
	return nil
}

// List returns every key version, highest version first.
func (m *MemoryKeyVersionRepository) List(_ context.Context) ([]*cryptoDomain.KeyVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := make([]*cryptoDomain.KeyVersion, 0, len(m.versions))
	for _, kv := range m.versions {
		clone := cloneKeyVersion(kv)
		versions = append(versions, &clone)
	}
	slices.SortFunc(versions, func(a, b *cryptoDomain.KeyVersion) int {
		return cmp.Compare(b.Version, a.Version)
	})
	return versions, nil
}

func cloneKeyVersion(kv cryptoDomain.KeyVersion) cryptoDomain.KeyVersion {
	kv.RotatedAt = copyTime(kv.RotatedAt)
	return kv
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// NewMemoryKeyVersionRepository creates an empty in-memory KeyVersion repository.
func NewMemoryKeyVersionRepository() *MemoryKeyVersionRepository {
	return &MemoryKeyVersionRepository{versions: make(map[uint]cryptoDomain.KeyVersion)}
}
