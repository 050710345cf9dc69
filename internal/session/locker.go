package session

import "sync"

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Locker serializes work per key while letting different keys run concurrently.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*keyLock)}
}

// Lock acquires the key's lock and returns its release function.
func (l *Locker) Lock(key string) func() {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// Registry is a mutex-guarded map of per-chat values.
type Registry[T any] struct {
	mu sync.Mutex
	m  map[string]T
}

// NewRegistry creates an empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{m: make(map[string]T)}
}

// Load returns the value for key.
func (r *Registry[T]) Load(key string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.m[key]
	return v, ok
}

// Store sets the value for key.
func (r *Registry[T]) Store(key string, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = v
}

// Delete removes key, reporting whether it was present.
func (r *Registry[T]) Delete(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.m[key]
	delete(r.m, key)
	return ok
}
