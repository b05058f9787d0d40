package forecast

import (
	"fmt"
	"strings"
	"time"
)

// Units selects the unit system a feed was requested in. It only affects
// labels; the summarizer never converts values.
type Units string

const (
	Metric   Units = "metric"
	Imperial Units = "imperial"
)

// ParseUnits accepts "metric" or "imperial" (case-insensitive). An empty
// string yields Metric.
func ParseUnits(s string) (Units, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Metric):
		return Metric, nil
	case string(Imperial):
		return Imperial, nil
	default:
		return "", fmt.Errorf("unknown unit system %q", s)
	}
}

// TemperatureLabel returns the suffix rendered after temperatures.
func (u Units) TemperatureLabel() string {
	if u == Imperial {
		return "°F"
	}
	return "°C"
}

// SpeedLabel returns the suffix rendered after wind speeds.
func (u Units) SpeedLabel() string {
	if u == Imperial {
		return "mph"
	}
	return "m/s"
}

// Sample is a single timestamped reading from a forecast feed. A nil
// Temperature means the feed carried no numeric value for that reading.
type Sample struct {
	Epoch       int64    `json:"dt" validate:"gt=0"`
	Temperature *float64 `json:"temp,omitempty" validate:"omitempty,finite"`
	IconCode    string   `json:"icon"`
	Description string   `json:"description"`
}

// Time returns the sample instant in UTC.
func (s Sample) Time() time.Time {
	return time.Unix(s.Epoch, 0).UTC()
}

// DaySummary condenses all samples of one local calendar day.
type DaySummary struct {
	DateKey     string `json:"date"`
	Weekday     string `json:"weekday"`
	MinTemp     int    `json:"min_temp"`
	MaxTemp     int    `json:"max_temp"`
	IconCode    string `json:"icon"`
	Description string `json:"description"`
	// Epoch of the representative sample.
	Epoch int64 `json:"dt"`
}

// Result is the ordered output of Summarize.
type Result struct {
	Units          Units        `json:"units"`
	TimezoneOffset int          `json:"timezone_offset"`
	Days           []DaySummary `json:"days"`
}

// Temp is a convenience for building samples with a known temperature.
func Temp(v float64) *float64 {
	return &v
}
