package series

import (
	"sort"
	"sync"
)

// Points is an immutable copy of one trace.
type Points struct {
	Xs []float64
	Ys []float64
}

// Bounds are the global extremes across every trace in a snapshot.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Snapshot is a consistent copy of every trace at a single point in
// producer time, safe to render without holding the registry lock.
type Snapshot struct {
	Bounds Bounds
	Series map[string]Points
}

// Registry maps measurement names to their traces behind one coarse
// lock. Update volume is one telemetry record per instrument sample
// interval, far below render cadence, so torn-read avoidance wins
// over lock granularity.
type Registry struct {
	mu      sync.Mutex
	buffers map[string]*Buffer
	order   []string
}

// NewRegistry fixes the trace name set. Updates for names outside it
// are ignored, which keeps unknown telemetry fields harmless.
func NewRegistry(buffers map[string]*Buffer) *Registry {
	order := make([]string, 0, len(buffers))
	for name := range buffers {
		order = append(order, name)
	}
	sort.Strings(order)

	return &Registry{buffers: buffers, order: order}
}

// Names returns the registered trace names in stable order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Update appends one point to the named trace; unknown names are a
// no-op.
func (r *Registry) Update(name string, x, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.buffers[name]; ok {
		b.Append(x, y)
	}
}

// Len returns the point count of the named trace.
func (r *Registry) Len(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.buffers[name]; ok {
		return b.Len()
	}
	return 0
}

// SnapshotAndClip computes global bounds, clips every trace to the
// trailing window (seconds) behind the newest observed x when the
// span exceeds it, and returns trace copies for rendering. ok is
// false until any trace holds data.
func (r *Registry) SnapshotAndClip(window float64) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bounds, any := r.boundsLocked()
	if !any {
		return Snapshot{}, false
	}

	if window > 0 && bounds.MaxX-window > bounds.MinX {
		clipAt := bounds.MaxX - window
		for _, b := range r.buffers {
			b.Clip(clipAt)
		}
		bounds.MinX = clipAt
	}

	out := make(map[string]Points, len(r.buffers))
	for name, b := range r.buffers {
		out[name] = b.copyPoints()
	}

	return Snapshot{Bounds: bounds, Series: out}, true
}

func (r *Registry) boundsLocked() (Bounds, bool) {
	var bounds Bounds
	any := false
	for _, b := range r.buffers {
		for i := 0; i < b.Len(); i++ {
			x, y := b.At(i)
			if !any {
				bounds = Bounds{MinX: x, MaxX: x, MinY: y, MaxY: y}
				any = true
				continue
			}
			if x < bounds.MinX {
				bounds.MinX = x
			}
			if x > bounds.MaxX {
				bounds.MaxX = x
			}
			if y < bounds.MinY {
				bounds.MinY = y
			}
			if y > bounds.MaxY {
				bounds.MaxY = y
			}
		}
	}

	return bounds, any
}
