package metrics

import "sync"

// Row is one row of a HudTable: a sparse slice of cells. A nil entry
// renders as blank padding so columns line up across rows (spec §3).
type Row []*Cell

// HudTable is a fixed-column-count, row-major, optionally sparse grid of
// cells (spec §3). HudTable itself is immutable once built; Snapshot
// publishes it behind a lock so the renderer can take its own copy of the
// pointer without racing the collector that replaces it.
type HudTable struct {
	Cols int
	Rows []Row
}

// Snapshot holds the current published HudTable under a mutex (spec §3:
// "The server publishes a shared-pointer snapshot; the renderer takes a
// copy under lock."). The HudTable value itself is never mutated after
// Publish; only the pointer is swapped, so a reader's copy of the pointer
// stays valid indefinitely.
type Snapshot struct {
	mu    sync.RWMutex
	table *HudTable
}

// Publish installs t as the current table, replacing whatever was
// published before. t must not be mutated by the caller afterwards.
func (s *Snapshot) Publish(t *HudTable) {
	s.mu.Lock()
	s.table = t
	s.mu.Unlock()
}

// Current returns the currently published table, or nil if none has been
// published yet.
func (s *Snapshot) Current() *HudTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}
