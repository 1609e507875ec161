// Package lock provides per-user locking to serialize one user's
// submission flow. It is defense in depth against rapid double-sends:
// ledger correctness still comes from database transactions and
// uniqueness constraints, never from these locks.
package lock

import "sync"

// UserLock serializes operations per user ID.
type UserLock struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{locks: make(map[int64]*sync.Mutex)}
}

func (ul *UserLock) get(userID int64) *sync.Mutex {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	m, ok := ul.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		ul.locks[userID] = m
	}
	return m
}

// Lock acquires the lock for a user.
func (ul *UserLock) Lock(userID int64) {
	ul.get(userID).Lock()
}

// Unlock releases the lock for a user.
func (ul *UserLock) Unlock(userID int64) {
	ul.get(userID).Unlock()
}

// TryLock attempts to acquire the lock without blocking. A false
// return means another submission from this user is in flight.
func (ul *UserLock) TryLock(userID int64) bool {
	return ul.get(userID).TryLock()
}

// WithLock executes fn while holding the user's lock.
func (ul *UserLock) WithLock(userID int64, fn func() error) error {
	ul.Lock(userID)
	defer ul.Unlock(userID)
	return fn()
}
