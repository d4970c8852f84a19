// Package metrics holds the consumed-only table binding between resolved
// layout and the collector's current values (spec §3, §4.6): Cell,
// HudTable, MetricRef, the sample/frametime rings, the auto-fit layout
// contract, and out-of-band value smoothing. No metric collection (sysfs,
// NVML, hwmon) lives here — that is an external collaborator (spec §1
// Non-goals).
package metrics

// MetricRef is a (group, name) pair (spec §3). Group "GLOBAL" is rebound
// by the collector to the requesting client's PID at lookup time; this
// package treats it as an opaque key either way.
type MetricRef struct {
	Group string
	Name  string
}

// CellKind discriminates a Cell's active variant.
type CellKind int

const (
	// CellText is a literal string with color, optional unit, and an
	// optional embedded frametime sample buffer. A Text cell with samples
	// renders as a graph row (spec §3: "A cell with an embedded sample
	// buffer is rendered as a graph row; otherwise as a value row.").
	CellText CellKind = iota
	CellValue
	CellGraph
)

// RGBA is a cell or accent color.
type RGBA struct {
	R, G, B, A uint8
}

// Cell is one HUD entry (spec §3 Cell variant).
type Cell struct {
	Kind CellKind

	// Text (CellText).
	Text    string
	Color   RGBA
	Unit    string
	Samples []float32 // non-nil only for a graph-rendered text cell

	// Ref-bearing variants (CellValue, CellGraph).
	Ref       MetricRef
	Precision int // CellValue only

	Min, Max float64 // CellGraph only
}

// IsGraph reports whether this cell renders as a graph row rather than a
// value row.
func (c *Cell) IsGraph() bool {
	return c.Kind == CellGraph || (c.Kind == CellText && len(c.Samples) > 0)
}
