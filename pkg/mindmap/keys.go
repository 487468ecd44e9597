package mindmap

import "sync"

// KeyAllocator hands out node keys that are strictly increasing for the
// lifetime of a session. Keys are never reused, even after a failed insert
// or a reload from a snapshot with smaller keys.
//
// A KeyAllocator is safe for concurrent use.
type KeyAllocator struct {
	mu   sync.Mutex
	next Key
}

// NewKeyAllocator returns an allocator whose first key is 1.
func NewKeyAllocator() *KeyAllocator {
	return &KeyAllocator{next: 1}
}

// Next returns a fresh key.
func (a *KeyAllocator) Next() Key {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.next < 1 {
		a.next = 1
	}
	k := a.next
	a.next++
	return k
}

// Peek returns the key the next call to Next will return.
func (a *KeyAllocator) Peek() Key {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.next < 1 {
		return 1
	}
	return a.next
}

// Observe records keys that are already in use so they are never handed out.
func (a *KeyAllocator) Observe(keys ...Key) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, k := range keys {
		if k >= a.next {
			a.next = k + 1
		}
	}
}

// ObserveSnapshot records every key in s.
func (a *KeyAllocator) ObserveSnapshot(s Snapshot) {
	a.Observe(s.MaxKey())
}
