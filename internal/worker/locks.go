package worker

import "sync"

// KeyedLocks is a registry of named mutexes enforcing single-writer access
// to shared registries: one key per tenant subject registry, one per
// (tenant, axis) pair. Locks are created on first use and never discarded;
// the key space is small and bounded by tenants and axis keys.
type KeyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedLocks creates an empty lock registry.
func NewKeyedLocks() *KeyedLocks {
	return &KeyedLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
func (k *KeyedLocks) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key.
func (k *KeyedLocks) Unlock(key string) {
	k.get(key).Unlock()
}

func (k *KeyedLocks) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	return lock
}
