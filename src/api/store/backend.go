package store

import (
	"sync"

	"github.com/fundguard/fundguard/src/api/types"
)

// State is the full persisted dataset: the account-by-email mapping and
// the community-by-code mapping. Backends must round-trip it losslessly.
type State struct {
	Accounts    map[string]*types.Account   `json:"accounts"`
	Communities map[string]*types.Community `json:"communities"`
}

func NewState() *State {
	return &State{
		Accounts:    make(map[string]*types.Account),
		Communities: make(map[string]*types.Community),
	}
}

// Backend persists the whole state in one shot. Save must be atomic:
// either both mappings land or neither does.
type Backend interface {
	Load() (*State, error)
	Save(*State) error
}

// MemoryBackend keeps state in process memory. Used in tests and as a
// throwaway mode when no storage is configured.
type MemoryBackend struct {
	mu    sync.Mutex
	state *State

	// FailSaves makes every Save return this error, for testing the
	// no-partial-write guarantee.
	FailSaves error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{state: NewState()}
}

func (m *MemoryBackend) Load() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state)
}

func (m *MemoryBackend) Save(st *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaves != nil {
		return m.FailSaves
	}
	cp, err := cloneState(st)
	if err != nil {
		return err
	}
	m.state = cp
	return nil
}
