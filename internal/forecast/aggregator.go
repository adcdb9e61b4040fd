package forecast

import (
	"sort"
	"time"

	"github.com/yegors/co-wx/internal/locale"
)

const (
	// MaxDays is the number of calendar days kept by DailyView
	MaxDays = 5
	// MaxHours is the number of samples kept by HourlyView
	MaxHours = 5

	dayHourStart   = 11
	dayHourEnd     = 16
	nightHourStart = 0
	nightHourEnd   = 5
)

// Aggregator turns a flat sample sequence into daily and hourly views.
// It holds no state besides the locale and is safe for concurrent use.
type Aggregator struct {
	loc *locale.Locale
}

// NewAggregator creates an aggregator formatting labels with the given locale.
// A nil locale falls back to the default one.
func NewAggregator(loc *locale.Locale) *Aggregator {
	if loc == nil {
		loc = locale.DefaultLocale()
	}
	return &Aggregator{loc: loc}
}

// LocalTime shifts a UTC timestamp by the location offset and returns it
// as a UTC time. Reading calendar fields from the result gives local values.
func LocalTime(timestamp int64, offsetSeconds int) time.Time {
	return time.Unix(timestamp+int64(offsetSeconds), 0).UTC()
}

// DayKey returns the shifted calendar date of a timestamp as YYYY-MM-DD
func DayKey(timestamp int64, offsetSeconds int) string {
	return LocalTime(timestamp, offsetSeconds).Format("2006-01-02")
}

// LocalHour returns the shifted hour of day (0-23)
func LocalHour(timestamp int64, offsetSeconds int) int {
	return LocalTime(timestamp, offsetSeconds).Hour()
}

// DailyView groups samples by shifted calendar day and keeps the last MaxDays
// days. For each day the first sample between 11:00 and 16:00 stands for the
// daytime (first sample otherwise) and the first one between 00:00 and 05:00
// for the night (last sample otherwise).
func (a *Aggregator) DailyView(samples []Sample, offsetSeconds int) []DailySummary {
	if len(samples) == 0 {
		return []DailySummary{}
	}

	keys, groups := groupDays(samples, offsetSeconds)

	days := make([]DailySummary, 0, len(keys))
	for _, key := range keys {
		points := groups[key]

		day, ok := firstInHours(points, offsetSeconds, dayHourStart, dayHourEnd)
		if !ok {
			day = points[0]
		}
		night, ok := firstInHours(points, offsetSeconds, nightHourStart, nightHourEnd)
		if !ok {
			night = points[len(points)-1]
		}

		days = append(days, DailySummary{
			DayKey:  key,
			Day:     day,
			Night:   night,
			Display: a.dailyEntry(day, night, offsetSeconds),
		})
	}

	return days
}

// DayCount returns the number of entries DailyView would produce
func DayCount(samples []Sample, offsetSeconds int) int {
	keys, _ := groupDays(samples, offsetSeconds)
	return len(keys)
}

// groupDays buckets samples by shifted day key. Keys come back sorted and
// trimmed to the last MaxDays; bucket contents keep input order.
func groupDays(samples []Sample, offsetSeconds int) ([]string, map[string][]Sample) {
	groups := make(map[string][]Sample)
	keys := make([]string, 0, MaxDays+1)
	for _, s := range samples {
		key := DayKey(s.Timestamp, offsetSeconds)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], s)
	}

	sort.Strings(keys)
	if len(keys) > MaxDays {
		keys = keys[len(keys)-MaxDays:]
	}
	return keys, groups
}

// HourlyView returns the first MaxHours samples in original order
func (a *Aggregator) HourlyView(samples []Sample, offsetSeconds int) []HourlySummary {
	n := len(samples)
	if n > MaxHours {
		n = MaxHours
	}

	hours := make([]HourlySummary, 0, n)
	for _, s := range samples[:n] {
		hours = append(hours, HourlySummary{
			Sample: s,
			Display: Entry{
				Date:    a.loc.HourLabel(LocalTime(s.Timestamp, offsetSeconds)),
				DayTemp: a.loc.Temperature(s.Temperature),
				DayIcon: s.Icon,
			},
		})
	}

	return hours
}

func (a *Aggregator) dailyEntry(day, night Sample, offsetSeconds int) Entry {
	l := a.loc
	return Entry{
		Date:        l.DayLabel(LocalTime(day.Timestamp, offsetSeconds)),
		DayTemp:     l.Temperature(day.Temperature),
		NightTemp:   l.Temperature(night.Temperature),
		DayIcon:     day.Icon,
		NightIcon:   night.Icon,
		FeelsLike:   l.Temperature(day.FeelsLike),
		Humidity:    l.Humidity(day.Humidity),
		WindSpeed:   l.Wind(day.WindSpeed),
		Pressure:    l.Pressure(day.PressureHPa),
		Description: l.Capitalize(day.Description),
	}
}

// firstInHours returns the first sample whose shifted hour lies in [from, to]
func firstInHours(points []Sample, offsetSeconds, from, to int) (Sample, bool) {
	for _, p := range points {
		h := LocalHour(p.Timestamp, offsetSeconds)
		if h >= from && h <= to {
			return p, true
		}
	}
	return Sample{}, false
}
