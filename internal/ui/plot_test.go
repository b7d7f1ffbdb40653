package ui

import (
	"image"
	"image/color"
	"testing"

	"thermogo/internal/series"
)

func TestPadBoundsWidensDegenerateAxes(t *testing.T) {
	b := padBounds(series.Bounds{MinX: 100, MaxX: 100, MinY: 36.5, MaxY: 36.5})
	if b.MaxX <= b.MinX {
		t.Fatalf("x axis still degenerate: %+v", b)
	}
	if b.MaxY <= b.MinY {
		t.Fatalf("y axis still degenerate: %+v", b)
	}
	if b.MinY >= 36.5 || b.MaxY <= 36.5 {
		t.Fatalf("flat trace value no longer inside bounds: %+v", b)
	}
}

func TestPadBoundsAddsMargin(t *testing.T) {
	b := padBounds(series.Bounds{MinX: 0, MaxX: 300, MinY: 20, MaxY: 40})
	if b.MinX != 0 || b.MaxX != 300 {
		t.Fatalf("healthy x axis was modified: %+v", b)
	}
	if b.MinY >= 20 || b.MaxY <= 40 {
		t.Fatalf("expected y margin around 20..40, got %+v", b)
	}
}

func TestDrawLineSetsEndpoints(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	c := color.NRGBA{R: 0xff, A: 0xff}
	drawLine(img, 1, 1, 8, 5, c)

	if got := img.NRGBAAt(1, 1); got != c {
		t.Fatalf("start pixel = %+v, want %+v", got, c)
	}
	if got := img.NRGBAAt(8, 5); got != c {
		t.Fatalf("end pixel = %+v, want %+v", got, c)
	}
}

func TestDrawLineClipsToImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	c := color.NRGBA{G: 0xff, A: 0xff}
	// Endpoints far outside the image must not panic and must still
	// paint the in-bounds crossing pixels.
	drawLine(img, -5, 2, 9, 2, c)

	for x := 0; x < 4; x++ {
		if got := img.NRGBAAt(x, 2); got != c {
			t.Fatalf("pixel (%d,2) = %+v, want %+v", x, got, c)
		}
	}
}

func TestSeriesColorsAreStable(t *testing.T) {
	a := NewPlotWidget([]string{"temperature", "i_set", "sens"})
	b := NewPlotWidget([]string{"sens", "temperature", "i_set"})

	for _, name := range []string{"temperature", "i_set", "sens"} {
		if a.SeriesColor(name) != b.SeriesColor(name) {
			t.Fatalf("color for %q depends on declaration order", name)
		}
	}
	if a.SeriesColor("temperature") == a.SeriesColor("i_set") {
		t.Fatalf("adjacent traces share a color")
	}
}
