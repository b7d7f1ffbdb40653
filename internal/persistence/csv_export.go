package persistence

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"
)

// ExportCSV writes the samples received inside [from, to) as a wide
// CSV table: one row per instrument timestamp, one column per
// (field, channel) pair, e.g. `time,temperature_0,i_set_0,
// temperature_1,i_set_1`. Cells with no sample stay empty.
func (r *SampleRepo) ExportCSV(ctx context.Context, w io.Writer, from, to time.Time, fields []string, channels int) error {
	samples, err := r.ListRange(ctx, from, to)
	if err != nil {
		return err
	}

	wanted := make(map[string]bool, len(fields))
	for _, f := range fields {
		wanted[f] = true
	}

	type cellKey struct {
		field   string
		channel int
	}
	rows := make(map[float64]map[cellKey]float64)
	var times []float64
	for _, s := range samples {
		if !wanted[s.Field] || s.Channel < 0 || s.Channel >= channels {
			continue
		}
		cells, ok := rows[s.InstrumentMS]
		if !ok {
			cells = make(map[cellKey]float64)
			rows[s.InstrumentMS] = cells
			times = append(times, s.InstrumentMS)
		}
		cells[cellKey{field: s.Field, channel: s.Channel}] = s.Value
	}
	sort.Float64s(times)

	out := csv.NewWriter(w)
	header := []string{"time"}
	for ch := 0; ch < channels; ch++ {
		for _, f := range fields {
			header = append(header, fmt.Sprintf("%s_%d", f, ch))
		}
	}
	if err := out.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, 0, len(header))
	for _, t := range times {
		record = record[:0]
		record = append(record, strconv.FormatFloat(t/1000.0, 'f', 3, 64))
		for ch := 0; ch < channels; ch++ {
			for _, f := range fields {
				v, ok := rows[t][cellKey{field: f, channel: ch}]
				if !ok {
					record = append(record, "")
					continue
				}
				record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
			}
		}
		if err := out.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	out.Flush()

	return out.Error()
}
