// Package forecast turns a 3-hour forecast feed into per-day summaries.
package forecast

import (
	"math"
	"sort"
	"time"
)

const (
	// MaxDays caps the number of summaries returned.
	MaxDays = 5

	dateKeyLayout = "2006-01-02"
	noonHour      = 12
)

// Summarizer binds Summarize to a clock so callers don't pass "now" around.
type Summarizer struct {
	now func() time.Time
}

// NewSummarizer returns a Summarizer reading the given clock. A nil clock
// means time.Now.
func NewSummarizer(now func() time.Time) *Summarizer {
	if now == nil {
		now = time.Now
	}
	return &Summarizer{now: now}
}

// Summarize runs the package-level Summarize with the Summarizer's clock.
func (s *Summarizer) Summarize(samples []Sample, tzOffset int, units Units) (Result, error) {
	return Summarize(samples, tzOffset, units, s.now())
}

// Summarize groups samples by local calendar day (epoch shifted by tzOffset
// seconds, read as UTC), drops the day containing now, and returns up to
// MaxDays summaries in ascending date order. Days where no sample carries a
// temperature are skipped.
func Summarize(samples []Sample, tzOffset int, units Units, now time.Time) (Result, error) {
	res := Result{
		Units:          units,
		TimezoneOffset: tzOffset,
		Days:           []DaySummary{},
	}
	if len(samples) == 0 {
		return res, nil
	}
	if err := Validate(samples); err != nil {
		return Result{}, err
	}

	buckets := groupByLocalDay(samples, tzOffset)
	delete(buckets, DateKey(now.Unix(), tzOffset))

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if len(res.Days) == MaxDays {
			break
		}
		day, ok := summarizeBucket(key, buckets[key], tzOffset)
		if !ok {
			continue
		}
		res.Days = append(res.Days, day)
	}
	return res, nil
}

// DateKey returns the YYYY-MM-DD local date of epoch under tzOffset.
func DateKey(epoch int64, tzOffset int) string {
	return localTime(epoch, tzOffset).Format(dateKeyLayout)
}

func localTime(epoch int64, tzOffset int) time.Time {
	return time.Unix(epoch+int64(tzOffset), 0).UTC()
}

func groupByLocalDay(samples []Sample, tzOffset int) map[string][]Sample {
	buckets := make(map[string][]Sample)
	for _, s := range samples {
		key := DateKey(s.Epoch, tzOffset)
		buckets[key] = append(buckets[key], s)
	}
	return buckets
}

func summarizeBucket(key string, samples []Sample, tzOffset int) (DaySummary, bool) {
	minTemp, maxTemp := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		if s.Temperature == nil {
			continue
		}
		t := *s.Temperature
		if t < minTemp {
			minTemp = t
		}
		if t > maxTemp {
			maxTemp = t
		}
	}
	if math.IsInf(minTemp, 1) {
		return DaySummary{}, false
	}

	rep := representative(samples, tzOffset)
	return DaySummary{
		DateKey:     key,
		Weekday:     localTime(rep.Epoch, tzOffset).Weekday().String()[:3],
		MinTemp:     roundHalfUp(minTemp),
		MaxTemp:     roundHalfUp(maxTemp),
		IconCode:    rep.IconCode,
		Description: rep.Description,
		Epoch:       rep.Epoch,
	}, true
}

// representative picks the sample closest to local noon. Only a strictly
// smaller distance replaces the current best, so the earliest sample wins ties.
func representative(samples []Sample, tzOffset int) Sample {
	best := samples[0]
	bestDiff := math.Inf(1)
	for _, s := range samples {
		hour := localTime(s.Epoch, tzOffset).Hour()
		diff := math.Abs(float64(hour - noonHour))
		if diff < bestDiff {
			bestDiff = diff
			best = s
		}
	}
	return best
}

// roundHalfUp rounds to the nearest integer with .5 going towards +Inf.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
