package planner

import "sync"

// keyedMutex serializes work per plan ID. Concurrent triggers for the same
// plan queue behind one another; triggers for different plans do not contend.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*planLock
}

type planLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*planLock)}
}

func (k *keyedMutex) lock(key string) {
	k.mu.Lock()
	l := k.locks[key]
	if l == nil {
		l = &planLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
}

func (k *keyedMutex) unlock(key string) {
	k.mu.Lock()
	l := k.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	l.mu.Unlock()
}
