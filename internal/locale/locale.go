// Package locale holds the display strings and number formatting for the
// supported page languages.
package locale

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HPaToMmHg converts hectopascals to millimetres of mercury
const HPaToMmHg = 0.75006

// Messages are the user-facing strings of the page
type Messages struct {
	NotFound         string
	Transient        string
	Unsupported      string
	PermissionDenied string
	MinLength        string
	Loading          string
	Locating         string
	GPSError         string
	UpdatedJustNow   string
	FeelsLike        string
	Humidity         string
	Pressure         string
	Wind             string
	Back             string
	Daily            string
	Hourly           string
	Placeholder      string
	Refresh          string
}

// Locale formats values and labels for one language
type Locale struct {
	Tag language.Tag

	weekdaysShort [7]string // Sunday first, as time.Weekday
	monthsShort   [12]string
	monthsLong    [12]string // ru uses the genitive form
	yearSuffix    string
	windUnit      string
	pressureUnit  string
	updatedFmt    string // minutes, used when relTime is nil
	relTime       func(then, now time.Time) string

	Messages Messages
}

var russian = &Locale{
	Tag:           language.Russian,
	weekdaysShort: [7]string{"вс", "пн", "вт", "ср", "чт", "пт", "сб"},
	monthsShort: [12]string{"янв.", "февр.", "мар.", "апр.", "мая", "июн.",
		"июл.", "авг.", "сент.", "окт.", "нояб.", "дек."},
	monthsLong: [12]string{"января", "февраля", "марта", "апреля", "мая", "июня",
		"июля", "августа", "сентября", "октября", "ноября", "декабря"},
	yearSuffix:   " г.",
	windUnit:     " м/с",
	pressureUnit: " мм.рт.ст.",
	updatedFmt:   "обновлено %d мин назад",
	Messages: Messages{
		NotFound:         "Город не найден. Попробуйте ввести название точнее",
		Transient:        "Не удалось загрузить данные. Проверьте соединение",
		Unsupported:      "Геолокация не поддерживается вашим браузером",
		PermissionDenied: "Не удалось получить доступ к местоположению",
		MinLength:        "Введите не менее 3 символов для поиска",
		Loading:          "Загрузка...",
		Locating:         "Ищем твое местоположение",
		GPSError:         "Ошибка GPS",
		UpdatedJustNow:   "обновлено менее мин назад",
		FeelsLike:        "Ощущается как",
		Humidity:         "Влажность",
		Pressure:         "Давление",
		Wind:             "Скорость ветра",
		Back:             "← Назад",
		Daily:            "На 5 дней",
		Hourly:           "Почасовой",
		Placeholder:      "Введите город",
		Refresh:          "Обновить",
	},
}

var english = &Locale{
	Tag:           language.English,
	weekdaysShort: [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"},
	monthsShort: [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	monthsLong: [12]string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
	windUnit:     " m/s",
	pressureUnit: " mmHg",
	relTime: func(then, now time.Time) string {
		return "updated " + humanize.RelTime(then, now, "ago", "from now")
	},
	Messages: Messages{
		NotFound:         "City not found. Try a more precise name",
		Transient:        "Could not load data. Check your connection",
		Unsupported:      "Geolocation is not supported by your browser",
		PermissionDenied: "Could not access your location",
		MinLength:        "Enter at least 3 characters to search",
		Loading:          "Loading...",
		Locating:         "Looking up your location",
		GPSError:         "GPS error",
		UpdatedJustNow:   "updated less than a minute ago",
		FeelsLike:        "Feels like",
		Humidity:         "Humidity",
		Pressure:         "Pressure",
		Wind:             "Wind speed",
		Back:             "← Back",
		Daily:            "5 days",
		Hourly:           "Hourly",
		Placeholder:      "Enter a city",
		Refresh:          "Refresh",
	},
}

var (
	supported = []*Locale{russian, english}
	matcher   = language.NewMatcher([]language.Tag{language.Russian, language.English})
)

// DefaultLocale returns the russian locale
func DefaultLocale() *Locale {
	return russian
}

// For picks the supported locale closest to a BCP 47 language string.
// Unknown or unparsable values fall back to the default locale.
func For(lang string) *Locale {
	tag, err := language.Parse(lang)
	if err != nil {
		return DefaultLocale()
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return DefaultLocale()
	}
	return supported[idx]
}

// Round rounds half away from zero
func Round(v float64) int {
	return int(math.Round(v))
}

// Temperature formats a temperature as a rounded value with a degree sign
func (l *Locale) Temperature(v float64) string {
	return fmt.Sprintf("%d°", Round(v))
}

// Humidity formats relative humidity
func (l *Locale) Humidity(v int) string {
	return fmt.Sprintf("%d %%", v)
}

// Wind formats a wind speed in m/s
func (l *Locale) Wind(v float64) string {
	return fmt.Sprintf("%d%s", Round(v), l.windUnit)
}

// PressureMmHg converts hPa to rounded mmHg
func PressureMmHg(hpa float64) int {
	return Round(hpa * HPaToMmHg)
}

// Pressure formats a hPa reading as mmHg with the unit suffix
func (l *Locale) Pressure(hpa float64) string {
	return fmt.Sprintf("%d%s", PressureMmHg(hpa), l.pressureUnit)
}

// Capitalize upper-cases the first character and leaves the rest unchanged
func (l *Locale) Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	// Casers are stateful; build one per call
	return cases.Upper(l.Tag).String(string(r)) + s[size:]
}

// DayLabel renders "Вт, 14 окт." for a shifted local time
func (l *Locale) DayLabel(t time.Time) string {
	weekday := l.Capitalize(l.weekdaysShort[t.Weekday()])
	return fmt.Sprintf("%s, %d %s", weekday, t.Day(), l.monthsShort[t.Month()-1])
}

// HourLabel renders the two-digit hour followed by ":00"
func (l *Locale) HourLabel(t time.Time) string {
	return fmt.Sprintf("%02d:00", t.Hour())
}

// DateLabel renders the long date of the current conditions,
// e.g. "Вт, 14 октября 2026 г."
func (l *Locale) DateLabel(t time.Time) string {
	weekday := l.Capitalize(l.weekdaysShort[t.Weekday()])
	return fmt.Sprintf("%s, %d %s %d%s", weekday, t.Day(), l.monthsLong[t.Month()-1], t.Year(), l.yearSuffix)
}

// UpdatedAgo renders how long ago data was fetched
func (l *Locale) UpdatedAgo(fetched, now time.Time) string {
	minutes := int(now.Sub(fetched) / time.Minute)
	if minutes < 1 {
		return l.Messages.UpdatedJustNow
	}
	if l.relTime != nil {
		return l.relTime(fetched, now)
	}
	return fmt.Sprintf(l.updatedFmt, minutes)
}

// Language returns the base language code, e.g. "ru"
func (l *Locale) Language() string {
	base, _ := l.Tag.Base()
	return strings.ToLower(base.String())
}
