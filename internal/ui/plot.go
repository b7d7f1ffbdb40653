package ui

import (
	"image"
	"image/color"
	"image/draw"
	"sort"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"thermogo/internal/series"
)

var plotPalette = []color.NRGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
	{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
	{R: 0xbc, G: 0xbd, B: 0x22, A: 0xff},
	{R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
}

var plotBackground = color.NRGBA{R: 0x10, G: 0x12, B: 0x14, A: 0xff}

// PlotWidget renders the registry's traces as polylines inside the
// current snapshot bounds. It only ever sees snapshot copies, never
// the live buffers, so it needs no lock shared with the producer.
type PlotWidget struct {
	widget.BaseWidget

	mu      sync.Mutex
	snap    series.Snapshot
	hasData bool

	colors map[string]color.NRGBA
}

func NewPlotWidget(names []string) *PlotWidget {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	colors := make(map[string]color.NRGBA, len(sorted))
	for i, name := range sorted {
		colors[name] = plotPalette[i%len(plotPalette)]
	}

	w := &PlotWidget{colors: colors}
	w.ExtendBaseWidget(w)

	return w
}

// SeriesColor returns the trace color used for a name.
func (w *PlotWidget) SeriesColor(name string) color.NRGBA {
	return w.colors[name]
}

// SetSnapshot swaps in the latest registry snapshot. Call Refresh on
// the Fyne thread afterwards.
func (w *PlotWidget) SetSnapshot(snap series.Snapshot, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snap = snap
	w.hasData = ok
}

func (w *PlotWidget) currentSnapshot() (series.Snapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.snap, w.hasData
}

func (w *PlotWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &plotRenderer{w: w}
	r.raster = canvas.NewRaster(r.drawImage)
	r.boundsLabel = canvas.NewText("", color.NRGBA{R: 0xaa, G: 0xaa, B: 0xaa, A: 0xff})
	r.boundsLabel.TextSize = 11

	return r
}

type plotRenderer struct {
	w           *PlotWidget
	raster      *canvas.Raster
	boundsLabel *canvas.Text
}

func (r *plotRenderer) Layout(size fyne.Size) {
	r.raster.Resize(size)
	r.boundsLabel.Move(fyne.NewPos(6, size.Height-20))
}

func (r *plotRenderer) MinSize() fyne.Size {
	return fyne.NewSize(360, 240)
}

func (r *plotRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.raster, r.boundsLabel}
}

func (r *plotRenderer) Refresh() {
	if snap, ok := r.w.currentSnapshot(); ok {
		b := snap.Bounds
		r.boundsLabel.Text = boundsText(b)
	} else {
		r.boundsLabel.Text = "waiting for telemetry"
	}
	r.boundsLabel.Refresh()
	r.raster.Refresh()
}

func (r *plotRenderer) Destroy() {}

func (r *plotRenderer) drawImage(wpx, hpx int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, wpx, hpx))
	draw.Draw(img, img.Bounds(), image.NewUniform(plotBackground), image.Point{}, draw.Src)

	snap, ok := r.w.currentSnapshot()
	if !ok || wpx < 2 || hpx < 2 {
		return img
	}

	b := padBounds(snap.Bounds)
	xSpan := b.MaxX - b.MinX
	ySpan := b.MaxY - b.MinY

	names := make([]string, 0, len(snap.Series))
	for name := range snap.Series {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pts := snap.Series[name]
		c := r.w.colors[name]
		prevSet := false
		var prevX, prevY int
		for i := range pts.Xs {
			px := int(float64(wpx-1) * (pts.Xs[i] - b.MinX) / xSpan)
			py := hpx - 1 - int(float64(hpx-1)*(pts.Ys[i]-b.MinY)/ySpan)
			if prevSet {
				drawLine(img, prevX, prevY, px, py, c)
			}
			prevX, prevY = px, py
			prevSet = true
		}
	}

	return img
}

// padBounds widens degenerate axes so a flat trace still renders.
func padBounds(b series.Bounds) series.Bounds {
	if b.MaxX <= b.MinX {
		b.MaxX = b.MinX + 1
	}
	if b.MaxY <= b.MinY {
		b.MinY -= 0.5
		b.MaxY += 0.5
	} else {
		margin := 0.01 * (b.MaxY - b.MinY)
		b.MinY -= margin
		b.MaxY += margin
	}

	return b
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetNRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
