package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"

	"thermogo/internal/series"
)

// buildLegend lays the trace names out in their plot colors.
func buildLegend(plot *PlotWidget, names []string) *fyne.Container {
	items := make([]fyne.CanvasObject, 0, len(names))
	for _, name := range names {
		label := canvas.NewText(name, plot.SeriesColor(name))
		label.TextSize = 12
		items = append(items, label)
	}

	return container.NewHBox(items...)
}

func boundsText(b series.Bounds) string {
	return fmt.Sprintf("t: %.1f … %.1f s    y: %.3f … %.3f", b.MinX, b.MaxX, b.MinY, b.MaxY)
}
