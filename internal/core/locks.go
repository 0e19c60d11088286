package core

import "time"

// Lock is an exclusive claim on one drawing element.
type Lock struct {
	HolderID   string
	AcquiredAt time.Time
}

// LockTable tracks which element, if any, is exclusively held by which
// participant. An element absent from the table is unlocked. The table is
// only touched from the owning room's actor goroutine, so it needs no
// locking of its own.
type LockTable struct {
	locks map[string]Lock
}

// NewLockTable constructs an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[string]Lock)}
}

// Acquire grants the lock if the element is unlocked or already held by
// holderID (idempotent reacquire). Returns the current holder either way.
func (t *LockTable) Acquire(objectID, holderID string, now time.Time) (granted bool, holder string) {
	if cur, ok := t.locks[objectID]; ok && cur.HolderID != holderID {
		return false, cur.HolderID
	}
	t.locks[objectID] = Lock{HolderID: holderID, AcquiredAt: now}
	return true, holderID
}

// Release removes the entry if holderID currently holds it. A release
// from anyone else is a no-op so a late duplicate release can never evict
// a new holder.
func (t *LockTable) Release(objectID, holderID string) bool {
	cur, ok := t.locks[objectID]
	if !ok || cur.HolderID != holderID {
		return false
	}
	delete(t.locks, objectID)
	return true
}

// ReleaseAllHeldBy removes every lock held by holderID and returns the
// released object ids.
func (t *LockTable) ReleaseAllHeldBy(holderID string) []string {
	var released []string
	for objectID, l := range t.locks {
		if l.HolderID == holderID {
			delete(t.locks, objectID)
			released = append(released, objectID)
		}
	}
	return released
}

// Holder returns the current holder of objectID, if locked.
func (t *LockTable) Holder(objectID string) (string, bool) {
	l, ok := t.locks[objectID]
	return l.HolderID, ok
}

// HeldByOrFree reports whether userID may mutate objectID: true when the
// element is unlocked or locked by userID.
func (t *LockTable) HeldByOrFree(objectID, userID string) bool {
	l, ok := t.locks[objectID]
	return !ok || l.HolderID == userID
}

// Clear drops every lock. Used by clear-canvas.
func (t *LockTable) Clear() {
	t.locks = make(map[string]Lock)
}

// Len returns the number of held locks.
func (t *LockTable) Len() int {
	return len(t.locks)
}

// View returns objectId -> holder for snapshots.
func (t *LockTable) View() map[string]string {
	view := make(map[string]string, len(t.locks))
	for objectID, l := range t.locks {
		view[objectID] = l.HolderID
	}
	return view
}
