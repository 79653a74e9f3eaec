package store

import (
	"context"
	"sync"

	"github.com/fundguard/fundguard/src/api/types"
)

// Sessions keeps the active login records, separate from account
// storage. Get returns nil without error when no session exists.
type Sessions interface {
	Set(ctx context.Context, sess types.Session) error
	Get(ctx context.Context, email string) (*types.Session, error)
	Del(ctx context.Context, email string) error
}

// MemorySessions backs tests and single-process deployments without redis.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]types.Session
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]types.Session)}
}

func (m *MemorySessions) Set(_ context.Context, sess types.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.Email] = sess
	return nil
}

func (m *MemorySessions) Get(_ context.Context, email string) (*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[email]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (m *MemorySessions) Del(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, email)
	return nil
}
