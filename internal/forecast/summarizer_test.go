package forecast

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"
)

// at returns the epoch whose local wall clock under tz is 2024-05-day hour:00.
// 2024-05-06 is a Monday.
func at(day, hour, tz int) int64 {
	return time.Date(2024, time.May, day, hour, 0, 0, 0, time.UTC).Unix() - int64(tz)
}

func sample(epoch int64, temp float64, icon string) Sample {
	return Sample{Epoch: epoch, Temperature: Temp(temp), IconCode: icon, Description: "desc " + icon}
}

func nowAt(day, hour, tz int) time.Time {
	return time.Unix(at(day, hour, tz), 0)
}

func TestSummarizeEmptyInput(t *testing.T) {
	res, err := Summarize(nil, 0, Metric, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Days) != 0 {
		t.Fatalf("expected no days, got %d", len(res.Days))
	}
	if res.Units != Metric {
		t.Errorf("expected units to pass through, got %q", res.Units)
	}
}

func TestSummarizeMinMaxRounding(t *testing.T) {
	samples := []Sample{
		sample(at(7, 9, 0), 18.4, "01d"),
		sample(at(7, 12, 0), 21.9, "02d"),
		sample(at(7, 15, 0), 19.0, "03d"),
	}

	res, err := Summarize(samples, 0, Metric, nowAt(6, 8, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(res.Days))
	}
	day := res.Days[0]
	if day.MinTemp != 18 || day.MaxTemp != 22 {
		t.Errorf("expected min 18 max 22, got min %d max %d", day.MinTemp, day.MaxTemp)
	}
	if day.DateKey != "2024-05-07" {
		t.Errorf("expected date 2024-05-07, got %s", day.DateKey)
	}
	if day.Weekday != "Tue" {
		t.Errorf("expected Tue, got %s", day.Weekday)
	}
}

func TestRepresentativeClosestToNoon(t *testing.T) {
	tests := []struct {
		name     string
		hours    []int
		wantHour int
	}{
		{name: "exact noon", hours: []int{0, 9, 12, 15, 21}, wantHour: 12},
		{name: "tie keeps first", hours: []int{10, 14}, wantHour: 10},
		{name: "tie keeps first reversed", hours: []int{14, 10}, wantHour: 14},
		{name: "single sample", hours: []int{3}, wantHour: 3},
		{name: "late day only", hours: []int{18, 21}, wantHour: 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var samples []Sample
			for _, h := range tt.hours {
				samples = append(samples, sample(at(8, h, 0), 10, "01d"))
			}

			rep := representative(samples, 0)
			if got := rep.Time().Hour(); got != tt.wantHour {
				t.Errorf("expected representative at hour %d, got %d", tt.wantHour, got)
			}
		})
	}
}

func TestSummarizeRepresentativeFieldsCopied(t *testing.T) {
	tz := 3600
	samples := []Sample{
		{Epoch: at(8, 0, tz), Temperature: Temp(5), IconCode: "10n", Description: "rain"},
		{Epoch: at(8, 12, tz), Temperature: Temp(9), IconCode: "01d", Description: "clear sky"},
		{Epoch: at(8, 21, tz), Temperature: Temp(6), IconCode: "04n", Description: "clouds"},
	}

	res, err := Summarize(samples, tz, Imperial, nowAt(6, 8, tz))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	day := res.Days[0]
	if day.IconCode != "01d" || day.Description != "clear sky" {
		t.Errorf("expected noon sample labels, got %q %q", day.IconCode, day.Description)
	}
	if day.Epoch != at(8, 12, tz) {
		t.Errorf("expected representative epoch %d, got %d", at(8, 12, tz), day.Epoch)
	}
	if day.Weekday != "Wed" {
		t.Errorf("expected Wed, got %s", day.Weekday)
	}
	if res.Units != Imperial || res.TimezoneOffset != tz {
		t.Errorf("expected units and offset to pass through, got %q %d", res.Units, res.TimezoneOffset)
	}
}

func TestSummarizeExcludesTodayAndCapsAtFive(t *testing.T) {
	var samples []Sample
	// Seven local days, newest first, 3-hour steps.
	for day := 12; day >= 6; day-- {
		for hour := 0; hour < 24; hour += 3 {
			samples = append(samples, sample(at(day, hour, 0), float64(day), "01d"))
		}
	}

	res, err := Summarize(samples, 0, Metric, nowAt(6, 8, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"2024-05-07", "2024-05-08", "2024-05-09", "2024-05-10", "2024-05-11"}
	if len(res.Days) != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), len(res.Days))
	}
	for i, day := range res.Days {
		if day.DateKey != want[i] {
			t.Errorf("day %d: expected %s, got %s", i, want[i], day.DateKey)
		}
	}
}

func TestSummarizeFewerDaysThanCap(t *testing.T) {
	samples := []Sample{
		sample(at(6, 12, 0), 1, "01d"),
		sample(at(7, 12, 0), 2, "01d"),
		sample(at(8, 12, 0), 3, "01d"),
	}

	res, err := Summarize(samples, 0, Metric, nowAt(6, 8, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(res.Days))
	}
}

func TestSummarizeTimezoneShiftsDayBoundary(t *testing.T) {
	tz := -5 * 3600
	// 2024-05-07 03:00 UTC is 2024-05-06 22:00 local.
	now := time.Date(2024, time.May, 7, 3, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Epoch: time.Date(2024, time.May, 7, 2, 0, 0, 0, time.UTC).Unix(), Temperature: Temp(20)},
		{Epoch: time.Date(2024, time.May, 7, 6, 0, 0, 0, time.UTC).Unix(), Temperature: Temp(15)},
	}

	res, err := Summarize(samples, tz, Metric, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(res.Days))
	}
	if res.Days[0].DateKey != "2024-05-07" || res.Days[0].MaxTemp != 15 {
		t.Errorf("unexpected day %+v", res.Days[0])
	}

	// Without the shift both samples fall on the UTC "today".
	res, err = Summarize(samples, 0, Metric, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Days) != 0 {
		t.Errorf("expected today to be excluded, got %+v", res.Days)
	}
}

func TestSummarizeMissingTemperatures(t *testing.T) {
	samples := []Sample{
		{Epoch: at(7, 9, 0), IconCode: "01d"},
		{Epoch: at(7, 12, 0), IconCode: "01d"},
		{Epoch: at(8, 9, 0), Temperature: Temp(4.5)},
		{Epoch: at(8, 12, 0)},
		{Epoch: at(8, 15, 0), Temperature: Temp(-2.5)},
		sample(at(9, 12, 0), 7, "02d"),
	}

	res, err := Summarize(samples, 0, Metric, nowAt(6, 8, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Days) != 2 {
		t.Fatalf("expected the all-missing day to be dropped, got %+v", res.Days)
	}
	if res.Days[0].DateKey != "2024-05-08" {
		t.Errorf("expected 2024-05-08 first, got %s", res.Days[0].DateKey)
	}
	if res.Days[0].MinTemp != -2 || res.Days[0].MaxTemp != 5 {
		t.Errorf("expected min -2 max 5, got %d %d", res.Days[0].MinTemp, res.Days[0].MaxTemp)
	}
}

func TestSummarizeRejectsMalformedSamples(t *testing.T) {
	tests := []struct {
		name      string
		samples   []Sample
		wantIndex int
		wantField string
	}{
		{
			name:      "missing epoch",
			samples:   []Sample{sample(at(7, 9, 0), 1, "01d"), {Temperature: Temp(3)}},
			wantIndex: 1,
			wantField: "Epoch",
		},
		{
			name:      "negative epoch",
			samples:   []Sample{{Epoch: -10, Temperature: Temp(3)}},
			wantIndex: 0,
			wantField: "Epoch",
		},
		{
			name:      "nan temperature",
			samples:   []Sample{{Epoch: at(7, 9, 0), Temperature: Temp(math.NaN())}},
			wantIndex: 0,
			wantField: "Temperature",
		},
		{
			name:      "infinite temperature",
			samples:   []Sample{sample(at(7, 9, 0), 1, "01d"), {Epoch: at(7, 12, 0), Temperature: Temp(math.Inf(1))}},
			wantIndex: 1,
			wantField: "Temperature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Summarize(tt.samples, 0, Metric, nowAt(6, 8, 0))
			if !errors.Is(err, ErrInvalidSample) {
				t.Fatalf("expected ErrInvalidSample, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Index != tt.wantIndex || verr.Field != tt.wantField {
				t.Errorf("expected sample %d field %s, got sample %d field %s",
					tt.wantIndex, tt.wantField, verr.Index, verr.Field)
			}
		})
	}
}

func TestSummarizeOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tz := 19800 // +05:30
	now := nowAt(6, 10, tz)

	for iter := 0; iter < 50; iter++ {
		var samples []Sample
		n := rng.Intn(60)
		for i := 0; i < n; i++ {
			day := 5 + rng.Intn(9)
			hour := rng.Intn(24)
			samples = append(samples, sample(at(day, hour, tz), rng.Float64()*40-10, "01d"))
		}

		res, err := Summarize(samples, tz, Metric, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		distinct := make(map[string]bool)
		for _, s := range samples {
			distinct[DateKey(s.Epoch, tz)] = true
		}
		delete(distinct, DateKey(now.Unix(), tz))

		if len(res.Days) > MaxDays || len(res.Days) > len(distinct) {
			t.Fatalf("got %d days from %d distinct non-today days", len(res.Days), len(distinct))
		}
		if len(distinct) >= MaxDays && len(res.Days) != MaxDays {
			t.Fatalf("expected %d days, got %d", MaxDays, len(res.Days))
		}
		for i, day := range res.Days {
			if day.DateKey == DateKey(now.Unix(), tz) {
				t.Fatalf("today's bucket leaked into output: %s", day.DateKey)
			}
			if i > 0 && res.Days[i-1].DateKey >= day.DateKey {
				t.Fatalf("dates not strictly ascending: %s then %s", res.Days[i-1].DateKey, day.DateKey)
			}
			if day.MinTemp > day.MaxTemp {
				t.Fatalf("min above max on %s", day.DateKey)
			}
		}
	}
}

func TestSummarizerUsesInjectedClock(t *testing.T) {
	samples := []Sample{
		sample(at(6, 12, 0), 1, "01d"),
		sample(at(7, 12, 0), 2, "01d"),
	}

	s := NewSummarizer(func() time.Time { return nowAt(7, 1, 0) })
	res, err := s.Summarize(samples, 0, Metric)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Days) != 1 || res.Days[0].DateKey != "2024-05-06" {
		t.Errorf("expected only 2024-05-06, got %+v", res.Days)
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{18.4, 18},
		{21.9, 22},
		{21.5, 22},
		{-2.5, -2},
		{-2.6, -3},
		{0, 0},
	}

	for _, tt := range tests {
		if got := roundHalfUp(tt.in); got != tt.want {
			t.Errorf("roundHalfUp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in      string
		want    Units
		wantErr bool
	}{
		{"", Metric, false},
		{"metric", Metric, false},
		{"Imperial", Imperial, false},
		{"kelvin", "", true},
	}

	for _, tt := range tests {
		got, err := ParseUnits(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseUnits(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseUnits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if Imperial.TemperatureLabel() != "°F" || Metric.TemperatureLabel() != "°C" {
		t.Error("unexpected temperature labels")
	}
	if Imperial.SpeedLabel() != "mph" || Metric.SpeedLabel() != "m/s" {
		t.Error("unexpected speed labels")
	}
}
