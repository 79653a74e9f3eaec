package webserver

import "sync"

// Inflight serializes double-submissions: a second vote for the same
// (voter, proposal) pair is rejected while the first is still running.
type Inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewInflight() *Inflight {
	return &Inflight{keys: make(map[string]struct{})}
}

func (f *Inflight) TryAcquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.keys[key]; busy {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *Inflight) Release(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
}
