// Package config defines the resolved configuration boundary consumed by
// the server (spec §6). Parsing YAML bytes into Resolved is an external
// collaborator's job (Non-goal); this package owns only the shape of the
// resolved result and the reload-change detector.
package config

import (
	"os"
	"sync"
)

// CellKind discriminates a Resolved table cell's variant (spec §3 Cell).
type CellKind int

const (
	CellText CellKind = iota
	CellValue
	CellGraph
)

// MetricRef is a (group, name) pair (spec §3 MetricRef). Group "GLOBAL" is
// rebound by the collector to the requesting client's PID; this package
// only carries the ref, it never resolves it.
type MetricRef struct {
	Group string
	Name  string
}

// Cell is one entry of the resolved HUD layout (spec §3 Cell). Exactly one
// of the Kind-specific field groups is meaningful; an absent cell in a row
// is represented by a nil *Cell, not a zero Cell.
type Cell struct {
	Kind CellKind

	// CellText
	Text  string
	Color [4]uint8

	// CellValue / CellGraph share a metric reference.
	Ref       MetricRef
	Unit      string
	Precision int

	// CellGraph only.
	Min, Max float64
}

// Row is one row of the table: a sparse slice of cells, nil entries render
// as blank padding (spec §3 HudTable).
type Row []*Cell

// Resolved is the pre-resolved HUD layout and display options this module
// consumes (spec §6). Struct tags let an external YAML loader unmarshal
// directly into this type; this package never calls into a YAML library
// itself.
type Resolved struct {
	Table struct {
		Cols int   `yaml:"cols"`
		Rows []Row `yaml:"rows"`
	} `yaml:"hud_table"`
	Options struct {
		FontSize float32 `yaml:"font_size"`
		FPSLimit float32 `yaml:"fps_limit"`
	} `yaml:"options"`
}

// statSignature is the (existence, size, mtime) triple spec §6 names as the
// server's reload trigger: "the server re-reads the file when its stat
// signature (existence, size, mtime sec+nsec) changes."
type statSignature struct {
	exists   bool
	size     int64
	mtimeSec int64
	mtimeNs  int64
}

func statOf(path string) statSignature {
	fi, err := os.Stat(path)
	if err != nil {
		return statSignature{}
	}
	mt := fi.ModTime()
	return statSignature{exists: true, size: fi.Size(), mtimeSec: mt.Unix(), mtimeNs: int64(mt.Nanosecond())}
}

// Store guards the currently resolved configuration and detects when the
// backing file has changed on disk, without reading or parsing it itself.
type Store struct {
	mu       sync.RWMutex
	path     string
	sig      statSignature
	resolved *Resolved
}

// NewStore creates a Store watching path. No configuration is resolved yet;
// Current returns nil until the caller observes Changed and installs a
// freshly parsed Resolved via Set.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Changed reports whether the backing file's stat signature differs from
// the last one observed, and updates the stored signature as a side
// effect. The caller (an external loader) re-reads and re-parses the file
// only when this returns true, then calls Set with the result.
func (s *Store) Changed() bool {
	cur := statOf(s.path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur == s.sig {
		return false
	}
	s.sig = cur
	return true
}

// Set installs a freshly resolved configuration. Safe for concurrent use
// with Current.
func (s *Store) Set(r *Resolved) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved = r
}

// Current returns the last resolved configuration, or nil if none has been
// set yet (spec §8: a session may open before any config exists).
func (s *Store) Current() *Resolved {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolved
}
