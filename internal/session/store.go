package session

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/tbourn/emotionwise-web/internal/repo"
)

// DBStore keeps the token in the local SQLite database.
type DBStore struct {
	DB *gorm.DB
}

// Load implements Store.
func (s DBStore) Load(ctx context.Context) (string, error) {
	tok, err := repo.LoadToken(ctx, s.DB)
	if errors.Is(err, repo.ErrNotFound) {
		return "", nil
	}
	return tok, err
}

// Save implements Store.
func (s DBStore) Save(ctx context.Context, token string) error {
	return repo.SaveToken(ctx, s.DB, token)
}

// Delete implements Store.
func (s DBStore) Delete(ctx context.Context) error {
	return repo.DeleteToken(ctx, s.DB)
}

// DeleteIf implements Store.
func (s DBStore) DeleteIf(ctx context.Context, token string) (bool, error) {
	return repo.DeleteTokenIf(ctx, s.DB, token)
}

// MemoryStore is an in-process Store, used in tests.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns a store holding token.
func NewMemoryStore(token string) *MemoryStore { return &MemoryStore{token: token} }

// Load implements Store.
func (m *MemoryStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

// DeleteIf implements Store.
func (m *MemoryStore) DeleteIf(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" || m.token != token {
		return false, nil
	}
	m.token = ""
	return true, nil
}
