package metrics

// CellMetrics carries the measured size of one rendered cell's text and
// optional unit, in pixels, as produced by the server's font-shaping step
// (an external collaborator — this package only aggregates pre-measured
// sizes into a layout, spec §1 Non-goals: "font atlas construction").
type CellMetrics struct {
	ValueW, ValueH float32
	UnitW, UnitH   float32
}

// Layout is the computed auto-fit result for one HudTable (spec §4.2
// "Auto-fit": "recompute the minimum bounding box of all cells and window
// padding"). Column 0 is left-aligned; every other column is right-aligned
// against the widest value/unit width seen in that column (matching the
// original renderer's value-field/unit-field alignment contract).
type Layout struct {
	RowHeight  float32
	ValueFieldW []float32 // per column, widest value-text width
	UnitFieldW  []float32 // per column, widest unit-text width
	Width, Height float32
}

// Padding is the fixed window padding added around the bounding box, in
// pixels on each axis.
type Padding struct {
	X, Y float32
}

// ComputeLayout measures table against per-cell metrics (indexed the same
// way as table.Rows) and returns the minimum bounding box plus per-column
// field widths. cellMetrics[r][c] must be non-nil wherever table.Rows[r][c]
// is non-nil; nil cells are skipped.
func ComputeLayout(table *HudTable, cellMetrics [][]*CellMetrics, pad Padding) Layout {
	l := Layout{
		ValueFieldW: make([]float32, table.Cols),
		UnitFieldW:  make([]float32, table.Cols),
	}
	var maxRowH, col0W float32
	for r, row := range table.Rows {
		var rowH float32
		if r >= len(cellMetrics) {
			continue
		}
		for c, cell := range row {
			if cell == nil || c >= len(cellMetrics[r]) {
				continue
			}
			m := cellMetrics[r][c]
			if m == nil {
				continue
			}
			if c > 0 {
				if m.ValueW > l.ValueFieldW[c] {
					l.ValueFieldW[c] = m.ValueW
				}
				if m.UnitW > l.UnitFieldW[c] {
					l.UnitFieldW[c] = m.UnitW
				}
			} else if w := m.ValueW + m.UnitW; w > col0W {
				col0W = w
			}
			if h := max32(m.ValueH, m.UnitH); h > rowH {
				rowH = h
			}
		}
		if rowH > maxRowH {
			maxRowH = rowH
		}
	}
	l.RowHeight = maxRowH

	rowTotalW := col0W
	for c := 0; c < table.Cols; c++ {
		if c == 0 {
			continue
		}
		rowTotalW += l.ValueFieldW[c] + l.UnitFieldW[c]
	}
	l.Width = rowTotalW + 2*pad.X
	l.Height = float32(len(table.Rows))*maxRowH + 2*pad.Y
	return l
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
