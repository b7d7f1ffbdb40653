// Package series keeps time-windowed telemetry traces for the plot:
// append-only (x, y) buffers per named measurement, all behind one
// registry lock shared by the telemetry producer and the renderer.
package series

// Transform adjusts a sample value before it is stored, e.g. unit
// scaling or subtracting a reference target.
type Transform func(float64) float64

// Scale multiplies every stored value by k.
func Scale(k float64) Transform {
	return func(y float64) float64 { return k * y }
}

// ScaleOffset applies k*y + d, covering both unit scaling and
// reference-target subtraction in one pass.
func ScaleOffset(k, d float64) Transform {
	return func(y float64) float64 { return k*y + d }
}

// Buffer is one measurement trace: parallel x (time, seconds) and y
// slices, insertion ordered, x non-decreasing under normal operation.
type Buffer struct {
	xs, ys    []float64
	transform Transform
}

// NewBuffer creates a trace. A nil transform stores values untouched.
func NewBuffer(transform Transform) *Buffer {
	return &Buffer{transform: transform}
}

// Append pushes one point to the end of the trace.
func (b *Buffer) Append(x, y float64) {
	if b.transform != nil {
		y = b.transform(y)
	}
	b.xs = append(b.xs, x)
	b.ys = append(b.ys, y)
}

// Clip drops every leading point with x < minX, preserving the order
// of the remainder. One forward scan plus a bulk move; it runs once
// per render frame against potentially thousands of points.
func (b *Buffer) Clip(minX float64) {
	drop := 0
	for drop < len(b.xs) && b.xs[drop] < minX {
		drop++
	}
	if drop == 0 {
		return
	}
	b.xs = append(b.xs[:0], b.xs[drop:]...)
	b.ys = append(b.ys[:0], b.ys[drop:]...)
}

// Len returns the stored point count.
func (b *Buffer) Len() int {
	return len(b.xs)
}

// At returns the i-th stored point.
func (b *Buffer) At(i int) (x, y float64) {
	return b.xs[i], b.ys[i]
}

func (b *Buffer) copyPoints() Points {
	return Points{
		Xs: append([]float64(nil), b.xs...),
		Ys: append([]float64(nil), b.ys...),
	}
}
