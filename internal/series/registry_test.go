package series

import (
	"sync"
	"testing"
)

func newTestRegistry(names ...string) *Registry {
	buffers := make(map[string]*Buffer, len(names))
	for _, name := range names {
		buffers[name] = NewBuffer(nil)
	}
	return NewRegistry(buffers)
}

func TestRegistryIgnoresUnknownChannels(t *testing.T) {
	r := newTestRegistry("temperature")
	r.Update("temperature", 1, 36.5)
	r.Update("dac_value", 1, 2.5)

	if r.Len("temperature") != 1 {
		t.Fatalf("expected one temperature point, got %d", r.Len("temperature"))
	}
	if r.Len("dac_value") != 0 {
		t.Fatalf("expected unknown channel to be ignored")
	}
}

func TestSnapshotAndClipEmptyRegistry(t *testing.T) {
	r := newTestRegistry("temperature")
	if _, ok := r.SnapshotAndClip(300); ok {
		t.Fatalf("expected no snapshot before any data")
	}
}

func TestSnapshotAndClipWindowsToTrailingRange(t *testing.T) {
	r := newTestRegistry("temperature")
	for _, x := range []float64{0, 100, 200, 400} {
		r.Update("temperature", x, 36.5)
	}

	snap, ok := r.SnapshotAndClip(300)
	if !ok {
		t.Fatalf("expected snapshot with data")
	}
	pts := snap.Series["temperature"]
	wantX := []float64{100, 200, 400}
	if len(pts.Xs) != len(wantX) {
		t.Fatalf("expected %d points after window clip, got %d", len(wantX), len(pts.Xs))
	}
	for i, want := range wantX {
		if pts.Xs[i] != want {
			t.Fatalf("point %d: expected x %v, got %v", i, want, pts.Xs[i])
		}
	}
	if snap.Bounds.MinX != 100 || snap.Bounds.MaxX != 400 {
		t.Fatalf("unexpected x bounds: %v … %v", snap.Bounds.MinX, snap.Bounds.MaxX)
	}
}

func TestSnapshotAndClipInsideWindowKeepsAll(t *testing.T) {
	r := newTestRegistry("temperature")
	r.Update("temperature", 0, 36.5)
	r.Update("temperature", 100, 36.6)

	snap, ok := r.SnapshotAndClip(300)
	if !ok {
		t.Fatalf("expected snapshot with data")
	}
	if got := len(snap.Series["temperature"].Xs); got != 2 {
		t.Fatalf("expected both points inside window, got %d", got)
	}
}

func TestSnapshotBoundsSpanAllSeries(t *testing.T) {
	r := newTestRegistry("temperature", "i_set")
	r.Update("temperature", 10, 36.5)
	r.Update("i_set", 20, -0.5)

	snap, ok := r.SnapshotAndClip(300)
	if !ok {
		t.Fatalf("expected snapshot with data")
	}
	b := snap.Bounds
	if b.MinX != 10 || b.MaxX != 20 {
		t.Fatalf("unexpected x bounds: %v … %v", b.MinX, b.MaxX)
	}
	if b.MinY != -0.5 || b.MaxY != 36.5 {
		t.Fatalf("unexpected y bounds: %v … %v", b.MinY, b.MaxY)
	}
}

func TestRegistryConcurrentUpdateAndSnapshot(t *testing.T) {
	const iterations = 5000

	r := newTestRegistry("temperature", "i_set")
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			x := float64(i)
			r.Update("temperature", x, 36.5)
			r.Update("i_set", x, -0.5)
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			// Window larger than the full x range: clipping never
			// drops points, so no update may be lost.
			snap, ok := r.SnapshotAndClip(float64(iterations) * 10)
			if !ok {
				continue
			}
			for name, pts := range snap.Series {
				if len(pts.Xs) != len(pts.Ys) {
					t.Errorf("torn read on %s: %d xs vs %d ys", name, len(pts.Xs), len(pts.Ys))
					return
				}
			}
		}
	}()

	wg.Wait()
	if got := r.Len("temperature"); got != iterations {
		t.Fatalf("lost updates: expected %d temperature points, got %d", iterations, got)
	}
	if got := r.Len("i_set"); got != iterations {
		t.Fatalf("lost updates: expected %d i_set points, got %d", iterations, got)
	}
}
