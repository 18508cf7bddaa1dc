package generate

import (
	"sync"
	"sync/atomic"
)

// Fence hands out monotonically increasing epochs per key and lets only the
// current epoch commit, at most once. A job that lost its epoch to a newer
// one can no longer write.
type Fence struct {
	seq atomic.Uint64

	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	mu        sync.Mutex
	epoch     uint64
	committed bool
}

// NewFence returns an empty fence.
func NewFence() *Fence {
	return &Fence{slots: make(map[string]*slot)}
}

// Begin starts key at a fresh epoch.
func (f *Fence) Begin(key string) uint64 {
	s := &slot{epoch: f.seq.Add(1)}
	f.mu.Lock()
	f.slots[key] = s
	f.mu.Unlock()
	return s.epoch
}

// Supersede invalidates every epoch issued for key so far and returns a new
// one. If an earlier epoch already committed, nothing changes and committed
// is true; the returned epoch is then the one that committed.
func (f *Fence) Supersede(key string) (epoch uint64, committed bool) {
	s := f.slot(key)
	if s == nil {
		return f.Begin(key), false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committed {
		return s.epoch, true
	}
	s.epoch = f.seq.Add(1)
	return s.epoch, false
}

// Commit runs write if epoch is still current for key and nothing has
// committed yet. ok reports whether write ran; the slot only counts as
// committed when write returns nil.
func (f *Fence) Commit(key string, epoch uint64, write func() error) (ok bool, err error) {
	s := f.slot(key)
	if s == nil {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committed || s.epoch != epoch {
		return false, nil
	}
	if err := write(); err != nil {
		return true, err
	}
	s.committed = true
	return true, nil
}

// Forget drops key. Later commits for it are treated as stale.
func (f *Fence) Forget(key string) {
	f.mu.Lock()
	delete(f.slots, key)
	f.mu.Unlock()
}

func (f *Fence) slot(key string) *slot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slots[key]
}
