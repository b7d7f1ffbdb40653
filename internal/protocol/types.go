package protocol

import (
	"encoding/json"
	"errors"
)

// TelemetryRecord is one decoded report-mode sample. Beyond the
// channel tag and instrument clock it carries whatever named fields
// the firmware emitted; the client does not interpret them.
type TelemetryRecord struct {
	Channel int
	Time    float64 // instrument clock, milliseconds
	Fields  map[string]any
}

// Float returns a numeric field by name.
func (r TelemetryRecord) Float(name string) (float64, bool) {
	v, ok := r.Fields[name].(float64)
	return v, ok
}

// Seconds converts the instrument clock to seconds.
func (r TelemetryRecord) Seconds() float64 {
	return r.Time / 1000.0
}

func decodeTelemetry(line string) (TelemetryRecord, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return TelemetryRecord{}, &DecodeError{Line: line, Err: err}
	}
	channel, ok := raw["channel"].(float64)
	if !ok {
		return TelemetryRecord{}, &DecodeError{Line: line, Err: errors.New("missing channel tag")}
	}
	t, ok := raw["time"].(float64)
	if !ok {
		return TelemetryRecord{}, &DecodeError{Line: line, Err: errors.New("missing time field")}
	}
	return TelemetryRecord{
		Channel: int(channel),
		Time:    t,
		Fields:  raw,
	}, nil
}

// Limit is a bounded instrument parameter: the configured value and
// the hardware maximum it may not exceed.
type Limit struct {
	Max   float64 `json:"max"`
	Value float64 `json:"value"`
}

// PWMReport is one channel's reply to the `pwm` query.
type PWMReport struct {
	Channel int             `json:"channel"`
	Center  json.RawMessage `json:"center"` // "vref" or a voltage, revision dependent
	ISet    Limit           `json:"i_set"`
	MaxINeg Limit           `json:"max_i_neg"`
	MaxIPos Limit           `json:"max_i_pos"`
	MaxV    Limit           `json:"max_v"`
}

// PIDParameters mirrors the firmware's PID coefficient block.
type PIDParameters struct {
	Kp          float64 `json:"kp"`
	Ki          float64 `json:"ki"`
	Kd          float64 `json:"kd"`
	OutputMin   float64 `json:"output_min"`
	OutputMax   float64 `json:"output_max"`
	IntegralMin float64 `json:"integral_min"`
	IntegralMax float64 `json:"integral_max"`
}

// PIDReport is one channel's reply to the `pid` query.
type PIDReport struct {
	Channel    int           `json:"channel"`
	Parameters PIDParameters `json:"parameters"`
	Target     float64       `json:"target"`
	Integral   float64       `json:"integral"`
}

// SteinhartHartParams convert thermistor resistance to temperature.
type SteinhartHartParams struct {
	B  float64 `json:"b"`
	R0 float64 `json:"r0"`
	T0 float64 `json:"t0"`
}

// SteinhartHartReport is one channel's reply to the `s-h` query.
type SteinhartHartReport struct {
	Channel int                 `json:"channel"`
	Params  SteinhartHartParams `json:"params"`
}

// PostfilterReport is one channel's reply to the `postfilter` query.
// Rate is nil when the ADC postfilter is disabled.
type PostfilterReport struct {
	Channel int      `json:"channel"`
	Rate    *float64 `json:"rate"`
}
