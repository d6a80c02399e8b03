package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	secretsDomain "github.com/allisson/rotavault/internal/secrets/domain"
)

// MemorySecretRepository keeps secrets in process memory. Stored values are copied on the
// way in and out, so callers never share a *Secret with the repository.
type MemorySecretRepository struct {
	mu      sync.RWMutex
	secrets map[string]*secretsDomain.Secret
}

// Get returns a copy of the secret stored under name.
func (r *MemorySecretRepository) Get(_ context.Context, name string) (*secretsDomain.Secret, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	secret, ok := r.secrets[name]
	if !ok {
		return nil, secretsDomain.ErrSecretNotFound
	}
	return cloneSecret(secret), nil
}

// Put stores a copy of secret, replacing any secret with the same name.
func (r *MemorySecretRepository) Put(_ context.Context, secret *secretsDomain.Secret) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.secrets[secret.Name] = cloneSecret(secret)
	return nil
}

// List returns copies of every stored secret ordered by name.
func (r *MemorySecretRepository) List(_ context.Context) ([]*secretsDomain.Secret, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	secrets := make([]*secretsDomain.Secret, 0, len(r.secrets))
	for _, secret := range r.secrets {
		secrets = append(secrets, cloneSecret(secret))
	}
	slices.SortFunc(secrets, func(a, b *secretsDomain.Secret) int {
		return strings.Compare(a.Name, b.Name)
	})
	return secrets, nil
}

// cloneSecret copies the persisted fields only; plaintext never enters the store.
func cloneSecret(secret *secretsDomain.Secret) *secretsDomain.Secret {
	return &secretsDomain.Secret{
		ID:        secret.ID,
		Name:      secret.Name,
		Envelope:  secret.Envelope,
		CreatedAt: secret.CreatedAt,
		UpdatedAt: secret.UpdatedAt,
	}
}

// NewMemorySecretRepository creates an empty in-memory Secret repository.
func NewMemorySecretRepository() *MemorySecretRepository {
	return &MemorySecretRepository{secrets: make(map[string]*secretsDomain.Secret)}
}
