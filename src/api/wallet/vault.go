package wallet

import (
	"sync"

	"github.com/zalando/go-keyring"
)

// KeyringVault stores member keys in the OS keyring so they never touch
// the state store or its serialized form.
type KeyringVault struct {
	service string
}

func NewKeyringVault(service string) *KeyringVault {
	if service == "" {
		service = "fundguard"
	}
	return &KeyringVault{service: service}
}

func (v *KeyringVault) Put(email, keyHex string) error {
	return keyring.Set(v.service, email, keyHex)
}

func (v *KeyringVault) Get(email string) (string, error) {
	return keyring.Get(v.service, email)
}

func (v *KeyringVault) Delete(email string) error {
	return keyring.Delete(v.service, email)
}

// MemoryVault backs tests and environments without an OS keyring.
type MemoryVault struct {
	mu   sync.Mutex
	keys map[string]string
}

func NewMemoryVault() *MemoryVault {
	return &MemoryVault{keys: make(map[string]string)}
}

func (v *MemoryVault) Put(email, keyHex string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys[email] = keyHex
	return nil
}

func (v *MemoryVault) Get(email string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	keyHex, ok := v.keys[email]
	if !ok {
		return "", ErrNoKey
	}
	return keyHex, nil
}

func (v *MemoryVault) Delete(email string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.keys, email)
	return nil
}
