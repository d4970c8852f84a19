package metrics

import "testing"

func BenchmarkSampleWindowAppend(b *testing.B) {
	w := NewSampleWindow(500_000_000, 4096)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		w.Append(Sample{Seq: uint64(i), TNs: int64(i) * 16_666_666})
	}
}

func BenchmarkFrametimeRingPush(b *testing.B) {
	r := NewFrametimeRing(512)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r.Push(float32(i % 33))
	}
}
