package auth

import (
	"sync"
	"time"
)

// revocationList remembers logged-out token ids until they would have expired anyway.
type revocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newRevocationList() *revocationList {
	return &revocationList{entries: make(map[string]time.Time)}
}

func (r *revocationList) Revoke(id string, until, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, exp := range r.entries {
		if !exp.After(now) {
			delete(r.entries, key)
		}
	}
	r.entries[id] = until
}

func (r *revocationList) IsRevoked(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}
