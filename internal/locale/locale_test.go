package locale

import (
	"testing"
	"time"
)

func TestFor(t *testing.T) {
	tests := []struct {
		lang string
		want *Locale
	}{
		{"ru", russian},
		{"ru-RU", russian},
		{"en", english},
		{"en-GB", english},
		{"", russian},
		{"not a tag!", russian},
	}
	for _, tt := range tests {
		if got := For(tt.lang); got != tt.want {
			t.Errorf("For(%q) = %s, want %s", tt.lang, got.Tag, tt.want.Tag)
		}
	}
}

func TestNumberFormatting(t *testing.T) {
	l := For("ru")

	if got := PressureMmHg(1000); got != 750 {
		t.Errorf("PressureMmHg(1000) = %d, want 750", got)
	}
	if got := l.Pressure(1013); got != "760 мм.рт.ст." {
		t.Errorf("Pressure(1013) = %q", got)
	}

	temps := map[float64]string{
		0:     "0°",
		-0.4:  "0°",
		0.5:   "1°",
		-0.5:  "-1°",
		21.49: "21°",
	}
	for in, want := range temps {
		if got := l.Temperature(in); got != want {
			t.Errorf("Temperature(%v) = %q, want %q", in, got, want)
		}
	}

	if got := l.Humidity(64); got != "64 %" {
		t.Errorf("Humidity(64) = %q", got)
	}
	if got := For("en").Wind(2.5); got != "3 m/s" {
		t.Errorf("Wind(2.5) = %q", got)
	}
}

func TestCapitalize(t *testing.T) {
	l := For("ru")
	tests := map[string]string{
		"":                "",
		"ясно":            "Ясно",
		"ёлка":            "Ёлка",
		"clear sky":       "Clear sky",
		"Уже с заглавной": "Уже с заглавной",
		"облачно с прояснениями": "Облачно с прояснениями",
	}
	for in, want := range tests {
		if got := l.Capitalize(in); got != want {
			t.Errorf("Capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLabels(t *testing.T) {
	ts := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)

	if got := For("ru").DayLabel(ts); got != "Ср, 14 окт." {
		t.Errorf("ru DayLabel = %q", got)
	}
	if got := For("en").DayLabel(ts); got != "Wed, 14 Oct" {
		t.Errorf("en DayLabel = %q", got)
	}
	if got := For("ru").HourLabel(ts); got != "09:00" {
		t.Errorf("HourLabel = %q", got)
	}
	if got := For("ru").DateLabel(ts); got != "Ср, 14 октября 2026 г." {
		t.Errorf("ru DateLabel = %q", got)
	}
	if got := For("en").DateLabel(ts); got != "Wed, 14 October 2026" {
		t.Errorf("en DateLabel = %q", got)
	}
}

func TestUpdatedAgo(t *testing.T) {
	now := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)

	ru := For("ru")
	if got := ru.UpdatedAgo(now.Add(-30*time.Second), now); got != "обновлено менее мин назад" {
		t.Errorf("ru 30s = %q", got)
	}
	if got := ru.UpdatedAgo(now.Add(-5*time.Minute), now); got != "обновлено 5 мин назад" {
		t.Errorf("ru 5m = %q", got)
	}

	en := For("en")
	if got := en.UpdatedAgo(now.Add(-5*time.Minute), now); got != "updated 5 minutes ago" {
		t.Errorf("en 5m = %q", got)
	}
}
