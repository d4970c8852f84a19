package metrics

import "testing"

func TestSampleWindowFPS(t *testing.T) {
	w := NewSampleWindow(500_000_000, 0)
	for i := 0; i < 30; i++ {
		w.Append(Sample{Seq: uint64(i), TNs: int64(i) * 16_666_666})
	}
	fps := w.FPS()
	if fps < 55 || fps > 65 {
		t.Fatalf("FPS = %f, want ~60", fps)
	}
}

func TestSampleWindowEvictsOutsideWindow(t *testing.T) {
	w := NewSampleWindow(100, 0) // 100ns window
	w.Append(Sample{Seq: 1, TNs: 0})
	w.Append(Sample{Seq: 2, TNs: 1000})
	snap := w.Snapshot()
	if len(snap) != 1 || snap[0].Seq != 2 {
		t.Fatalf("expected only the newest sample retained, got %+v", snap)
	}
}

func TestSampleWindowRespectsCap(t *testing.T) {
	w := NewSampleWindow(1<<62, 3)
	for i := 0; i < 10; i++ {
		w.Append(Sample{Seq: uint64(i), TNs: int64(i)})
	}
	snap := w.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(snap))
	}
	if snap[len(snap)-1].Seq != 9 {
		t.Fatalf("expected newest sample retained, got %+v", snap)
	}
}

func TestSampleWindowFPSInsufficientSamples(t *testing.T) {
	w := NewSampleWindow(500, 0)
	if fps := w.FPS(); fps != 0 {
		t.Fatalf("expected 0 FPS with no samples, got %f", fps)
	}
	w.Append(Sample{Seq: 1, TNs: 0})
	if fps := w.FPS(); fps != 0 {
		t.Fatalf("expected 0 FPS with one sample, got %f", fps)
	}
}

func TestFrametimeRingWrapsAndOrders(t *testing.T) {
	r := NewFrametimeRing(4)
	for i := 1; i <= 6; i++ {
		r.Push(float32(i))
	}
	got := r.Snapshot()
	want := []float32{3, 4, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFrametimeRingPartiallyFilled(t *testing.T) {
	r := NewFrametimeRing(4)
	r.Push(1)
	r.Push(2)
	got := r.Snapshot()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v", got)
	}
}

func TestMetricRefResolveGlobal(t *testing.T) {
	ref := MetricRef{Group: GlobalGroup, Name: "FPS"}
	resolved := ref.Resolve(4242)
	if resolved.Group != "PID:4242" || resolved.Name != "FPS" {
		t.Fatalf("got %+v", resolved)
	}
}

func TestMetricRefResolveStaticGroupUnchanged(t *testing.T) {
	ref := MetricRef{Group: "GPU0", Name: "LOAD"}
	if resolved := ref.Resolve(4242); resolved != ref {
		t.Fatalf("got %+v, want unchanged %+v", resolved, ref)
	}
}

func TestSmootherRejectsOutOfBand(t *testing.T) {
	s := NewSmoother(0.5, 1.5)
	if got := s.Push(60); got != 60 {
		t.Fatalf("first push should establish baseline, got %v", got)
	}
	if got := s.Push(1000); got != 60 {
		t.Fatalf("out-of-band push should return last good value, got %v", got)
	}
	if got := s.Push(65); got != 65 {
		t.Fatalf("in-band push should be accepted, got %v", got)
	}
}

func TestSnapshotPublishCurrent(t *testing.T) {
	var s Snapshot
	if s.Current() != nil {
		t.Fatal("expected nil before first publish")
	}
	t1 := &HudTable{Cols: 2}
	s.Publish(t1)
	if s.Current() != t1 {
		t.Fatal("expected published table to be returned")
	}
}

func TestComputeLayoutBasic(t *testing.T) {
	table := &HudTable{
		Cols: 2,
		Rows: []Row{
			{&Cell{Kind: CellText, Text: "GPU"}, &Cell{Kind: CellValue, Ref: MetricRef{Group: "GPU0", Name: "LOAD"}}},
		},
	}
	metricsIn := [][]*CellMetrics{
		{{ValueW: 30, ValueH: 14}, {ValueW: 40, ValueH: 14, UnitW: 10, UnitH: 10}},
	}
	l := ComputeLayout(table, metricsIn, Padding{X: 4, Y: 4})
	if l.RowHeight != 14 {
		t.Fatalf("RowHeight = %v, want 14", l.RowHeight)
	}
	if l.ValueFieldW[1] != 40 || l.UnitFieldW[1] != 10 {
		t.Fatalf("column 1 widths = %v/%v, want 40/10", l.ValueFieldW[1], l.UnitFieldW[1])
	}
	if l.ValueFieldW[0] != 0 {
		t.Fatalf("column 0 should not contribute to field width (left-aligned), got %v", l.ValueFieldW[0])
	}
}

func TestComputeLayoutNilCellMetrics(t *testing.T) {
	table := &HudTable{
		Cols: 2,
		Rows: []Row{
			{&Cell{Kind: CellText, Text: "GPU"}, &Cell{Kind: CellValue, Ref: MetricRef{Group: "GPU0", Name: "LOAD"}}},
		},
	}
	l := ComputeLayout(table, nil, Padding{X: 8, Y: 8})
	if l.RowHeight != 0 {
		t.Fatalf("RowHeight = %v, want 0 with no measured cells", l.RowHeight)
	}
	if l.Width != 2*8 || l.Height != 2*8 {
		t.Fatalf("layout = %+v, want padding-only bounding box", l)
	}
}

func TestCellIsGraph(t *testing.T) {
	c := &Cell{Kind: CellText, Samples: []float32{1, 2, 3}}
	if !c.IsGraph() {
		t.Fatal("text cell with samples should render as a graph")
	}
	plain := &Cell{Kind: CellText}
	if plain.IsGraph() {
		t.Fatal("text cell without samples should not render as a graph")
	}
	g := &Cell{Kind: CellGraph}
	if !g.IsGraph() {
		t.Fatal("graph cell should render as a graph")
	}
}
