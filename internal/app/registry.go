package app

import (
	"thermogo/internal/config"
	"thermogo/internal/series"
)

// BuildRegistry creates the plot registry from the configured series
// map, wiring each trace's scale/offset transform.
func BuildRegistry(cfg config.PlotConfig) *series.Registry {
	buffers := make(map[string]*series.Buffer, len(cfg.Series))
	for name, sc := range cfg.Series {
		scale := sc.Scale
		if scale == 0 {
			scale = 1
		}
		buffers[name] = series.NewBuffer(series.ScaleOffset(scale, sc.Offset))
	}

	return series.NewRegistry(buffers)
}
