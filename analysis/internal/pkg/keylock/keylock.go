package keylock

import "sync"

// KeyLock serializes operations sharing a string key, so expensive work such
// as artifact generation runs at most once at a time per file.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for key, blocking while another goroutine holds it.
func (l *KeyLock) Lock(key string) {
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	l.mu.Unlock()

	lock.Lock()
}

// Unlock releases the lock for key. Mutex instances are kept around to avoid
// reallocating them for hot keys; the key space here is bounded by the
// number of stored files.
func (l *KeyLock) Unlock(key string) {
	l.mu.Lock()
	if lock, ok := l.locks[key]; ok {
		lock.Unlock()
	}
	l.mu.Unlock()
}
