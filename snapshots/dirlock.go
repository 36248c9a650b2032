package snapshots

import (
	"path/filepath"
	"sync"
)

// dirLocks serializes extractions that target the same directory.
type dirLocks struct {
	mu    sync.Mutex
	locks map[string]*dirLock
}

type dirLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until dir is free and returns the matching unlock function.
func (d *dirLocks) lock(dir string) func() {
	key := filepath.Clean(dir)
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}

	d.mu.Lock()
	if d.locks == nil {
		d.locks = make(map[string]*dirLock)
	}
	l, ok := d.locks[key]
	if !ok {
		l = &dirLock{}
		d.locks[key] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, key)
		}
		d.mu.Unlock()
	}
}
