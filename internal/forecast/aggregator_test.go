package forecast

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/yegors/co-wx/internal/locale"
)

// at returns the Unix time of 2026-10-14 + day at the given UTC hour
func at(day, hour int) int64 {
	return time.Date(2026, time.October, 14+day, hour, 0, 0, 0, time.UTC).Unix()
}

func sample(day, hour int, temp float64) Sample {
	return Sample{
		Timestamp:   at(day, hour),
		Temperature: temp,
		FeelsLike:   temp - 1,
		Humidity:    70,
		PressureHPa: 1000,
		WindSpeed:   3.4,
		Icon:        "10d",
		Description: "небольшой дождь",
	}
}

// week builds 3-hourly samples for the given number of days
func week(days int) []Sample {
	var out []Sample
	for d := 0; d < days; d++ {
		for h := 0; h < 24; h += 3 {
			out = append(out, sample(d, h, float64(d*100+h)))
		}
	}
	return out
}

func TestDailyViewEmpty(t *testing.T) {
	a := NewAggregator(nil)
	if got := a.DailyView(nil, 0); len(got) != 0 {
		t.Fatalf("DailyView(nil) returned %d entries, want 0", len(got))
	}
	if got := a.HourlyView(nil, 0); len(got) != 0 {
		t.Fatalf("HourlyView(nil) returned %d entries, want 0", len(got))
	}
}

func TestDailyViewDayCount(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		want     int
		firstKey string
	}{
		{name: "single day", days: 1, want: 1, firstKey: "2026-10-14"},
		{name: "three days not padded", days: 3, want: 3, firstKey: "2026-10-14"},
		{name: "exactly five", days: 5, want: 5, firstKey: "2026-10-14"},
		{name: "six days drops earliest", days: 6, want: 5, firstKey: "2026-10-15"},
		{name: "seven days keeps last five", days: 7, want: 5, firstKey: "2026-10-16"},
	}

	a := NewAggregator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.DailyView(week(tt.days), 0)
			if len(got) != tt.want {
				t.Fatalf("got %d days, want %d", len(got), tt.want)
			}
			if n := DayCount(week(tt.days), 0); n != tt.want {
				t.Errorf("DayCount = %d, want %d", n, tt.want)
			}
			if got[0].DayKey != tt.firstKey {
				t.Errorf("first day key = %s, want %s", got[0].DayKey, tt.firstKey)
			}
			for i := 1; i < len(got); i++ {
				if got[i-1].DayKey >= got[i].DayKey {
					t.Errorf("day keys not strictly increasing: %s then %s", got[i-1].DayKey, got[i].DayKey)
				}
			}
		})
	}
}

func TestDailyViewRepresentatives(t *testing.T) {
	a := NewAggregator(nil)

	t.Run("day and night picked by hour window", func(t *testing.T) {
		// Group order 9, 13, 2, 23 on the same calendar day
		samples := []Sample{sample(0, 9, 9), sample(0, 13, 13), sample(0, 2, 2), sample(0, 23, 23)}
		got := a.DailyView(samples, 0)
		if len(got) != 1 {
			t.Fatalf("got %d days, want 1", len(got))
		}
		if got[0].Day.Timestamp != at(0, 13) {
			t.Errorf("day representative hour = %d, want 13", LocalHour(got[0].Day.Timestamp, 0))
		}
		if got[0].Night.Timestamp != at(0, 2) {
			t.Errorf("night representative hour = %d, want 2", LocalHour(got[0].Night.Timestamp, 0))
		}
	})

	t.Run("no daytime sample falls back to first", func(t *testing.T) {
		samples := []Sample{sample(0, 6, 6), sample(0, 9, 9), sample(0, 18, 18), sample(0, 21, 21)}
		got := a.DailyView(samples, 0)
		if got[0].Day.Timestamp != at(0, 6) {
			t.Errorf("day representative hour = %d, want 6", LocalHour(got[0].Day.Timestamp, 0))
		}
	})

	t.Run("no night sample falls back to last", func(t *testing.T) {
		samples := []Sample{sample(0, 6, 6), sample(0, 12, 12), sample(0, 21, 21)}
		got := a.DailyView(samples, 0)
		if got[0].Night.Timestamp != at(0, 21) {
			t.Errorf("night representative hour = %d, want 21", LocalHour(got[0].Night.Timestamp, 0))
		}
	})

	t.Run("first match wins", func(t *testing.T) {
		samples := []Sample{sample(0, 0, 0), sample(0, 3, 3), sample(0, 12, 12), sample(0, 15, 15)}
		got := a.DailyView(samples, 0)
		if got[0].Day.Timestamp != at(0, 12) || got[0].Night.Timestamp != at(0, 0) {
			t.Errorf("got day %d night %d, want 12 and 0",
				LocalHour(got[0].Day.Timestamp, 0), LocalHour(got[0].Night.Timestamp, 0))
		}
	})
}

func TestDailyViewOffsetShiftsDay(t *testing.T) {
	a := NewAggregator(nil)
	// 22:00 UTC is 01:00 next day at UTC+3
	samples := []Sample{sample(0, 22, 1)}
	got := a.DailyView(samples, 3*3600)
	if got[0].DayKey != "2026-10-15" {
		t.Errorf("day key = %s, want 2026-10-15", got[0].DayKey)
	}

	// 02:00 UTC is 21:00 previous day at UTC-5
	got = a.DailyView([]Sample{sample(0, 2, 1)}, -5*3600)
	if got[0].DayKey != "2026-10-13" {
		t.Errorf("day key = %s, want 2026-10-13", got[0].DayKey)
	}
}

func TestDailyViewDisplay(t *testing.T) {
	a := NewAggregator(locale.For("ru"))

	day := sample(0, 12, 12.5)
	day.FeelsLike = 10.4
	day.Humidity = 81
	day.WindSpeed = 4.6
	day.PressureHPa = 1000
	night := sample(0, 3, -2.5)
	night.Icon = "01n"

	got := a.DailyView([]Sample{night, day}, 0)
	want := Entry{
		Date:        "Ср, 14 окт.",
		DayTemp:     "13°",
		NightTemp:   "-3°",
		DayIcon:     "10d",
		NightIcon:   "01n",
		FeelsLike:   "10°",
		Humidity:    "81 %",
		WindSpeed:   "5 м/с",
		Pressure:    "750 мм.рт.ст.",
		Description: "Небольшой дождь",
	}
	if diff := cmp.Diff(want, got[0].Display); diff != "" {
		t.Errorf("display mismatch (-want +got):\n%s", diff)
	}
}

func TestDailyViewEndToEnd(t *testing.T) {
	// 16 samples over two days; only 03:00 falls in the night window
	// and only 12:00 in the day window
	hours := []int{3, 6, 7, 8, 9, 10, 12, 17}
	var samples []Sample
	for d := 0; d < 2; d++ {
		for _, h := range hours {
			samples = append(samples, sample(d, h, float64(d*100+h)))
		}
	}
	if len(samples) != 16 {
		t.Fatalf("fixture has %d samples", len(samples))
	}

	got := NewAggregator(nil).DailyView(samples, 0)
	if len(got) != 2 {
		t.Fatalf("got %d days, want 2", len(got))
	}
	for d, summary := range got {
		if summary.Day.Timestamp != at(d, 12) {
			t.Errorf("day %d: day representative at hour %d, want 12", d, LocalHour(summary.Day.Timestamp, 0))
		}
		if summary.Night.Timestamp != at(d, 3) {
			t.Errorf("day %d: night representative at hour %d, want 3", d, LocalHour(summary.Night.Timestamp, 0))
		}
		if summary.Day == summary.Night {
			t.Errorf("day %d: day and night representatives are the same sample", d)
		}
	}
}

func TestHourlyView(t *testing.T) {
	a := NewAggregator(nil)

	tests := []struct {
		name string
		n    int
		want int
	}{
		{name: "empty", n: 0, want: 0},
		{name: "fewer than five", n: 3, want: 3},
		{name: "exactly five", n: 5, want: 5},
		{name: "full feed", n: 40, want: 5},
	}

	all := week(5)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.HourlyView(all[:tt.n], 3*3600)
			if len(got) != tt.want {
				t.Fatalf("got %d entries, want %d", len(got), tt.want)
			}
			for i, h := range got {
				if h.Sample != all[i] {
					t.Errorf("entry %d is not the %d-th input sample", i, i)
				}
				if h.Display.NightTemp != "" || h.Display.NightIcon != "" {
					t.Errorf("entry %d has night fields: %+v", i, h.Display)
				}
			}
		})
	}

	got := a.HourlyView(all, 3*3600)
	labels := []string{"03:00", "06:00", "09:00", "12:00", "15:00"}
	for i, want := range labels {
		if got[i].Display.Date != want {
			t.Errorf("label %d = %s, want %s", i, got[i].Display.Date, want)
		}
	}
	if got[0].Display.DayTemp != "0°" || got[0].Display.DayIcon != "10d" {
		t.Errorf("unexpected day fields: %+v", got[0].Display)
	}
}

func TestViewsAreIdempotent(t *testing.T) {
	a := NewAggregator(nil)
	samples := week(6)
	before := append([]Sample(nil), samples...)

	if diff := cmp.Diff(a.DailyView(samples, 7200), a.DailyView(samples, 7200)); diff != "" {
		t.Errorf("DailyView not idempotent:\n%s", diff)
	}
	if diff := cmp.Diff(a.HourlyView(samples, 7200), a.HourlyView(samples, 7200)); diff != "" {
		t.Errorf("HourlyView not idempotent:\n%s", diff)
	}
	if diff := cmp.Diff(before, samples); diff != "" {
		t.Errorf("input mutated:\n%s", diff)
	}
}
