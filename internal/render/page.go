package render

import (
	"strconv"
	"time"

	"github.com/yegors/co-wx/internal/forecast"
	"github.com/yegors/co-wx/internal/locale"
	"github.com/yegors/co-wx/internal/session"
)

// ErrorMessage returns the localized text for an error kind
func ErrorMessage(kind session.ErrorKind, loc *locale.Locale) string {
	m := loc.Messages
	switch kind {
	case session.ErrorNotFound:
		return m.NotFound
	case session.ErrorTransient:
		return m.Transient
	case session.ErrorUnsupported:
		return m.Unsupported
	case session.ErrorPermissionDenied:
		return m.PermissionDenied
	case session.ErrorMinLength:
		return m.MinLength
	default:
		return ""
	}
}

// CityLabel returns the heading text
func CityLabel(s session.State, loc *locale.Locale) string {
	switch s.CityStatus {
	case session.CityLocating:
		return loc.Messages.Locating
	case session.CityGPSError:
		return loc.Messages.GPSError
	default:
		return s.City
	}
}

// Page maps the state to the complete display tree
func Page(s session.State, loc *locale.Locale) Node {
	if loc == nil {
		loc = locale.DefaultLocale()
	}
	return El("section", "weather",
		Search(s, loc),
		currentBlock(s, loc),
		Toggles(s, loc),
		Forecast(s, loc),
	).Attr("lang", loc.Language())
}

// Search renders the form, error line and suggestion list
func Search(s session.State, loc *locale.Locale) Node {
	input := Node{Tag: "input", Class: "weather__input"}.
		Attr("type", "text").
		Attr("name", "city").
		Attr("autocomplete", "off").
		Attr("placeholder", loc.Messages.Placeholder).
		Attr("value", s.Input).
		AddClass("is-loading", s.Loading)
	if s.Error != session.ErrorNone {
		input = input.Attr("aria-invalid", "true")
	}

	form := El("form", "weather__form",
		input,
		Node{Tag: "button", Class: "weather__gps-button"}.Attr("type", "button").Attr("data-action", "geolocation"),
	).Attr("data-action", "submit")

	return El("div", "weather__search",
		form,
		Text("p", "weather__error", ErrorMessage(s.Error, loc)),
		Suggestions(s),
	)
}

// Suggestions renders the autocomplete list
func Suggestions(s session.State) Node {
	list := El("ul", "weather__suggestions-list").AddClass("is-active", len(s.Suggestions) > 0)
	for _, sg := range s.Suggestions {
		list.Children = append(list.Children,
			Text("li", "weather__suggestions-item", sg.Text).Attr("data-action", "select_suggestion"))
	}
	return list
}

func currentBlock(s session.State, loc *locale.Locale) Node {
	m := loc.Messages
	block := El("div", "weather__current", Text("h2", "weather__city", CityLabel(s, loc)))

	cur := s.Current
	if cur == nil {
		block.Children = append(block.Children,
			El("div", "weather__temperature", Text("span", "weather__temperature-value", "--°")),
			Text("p", "weather__description", ""),
			El("ul", "weather__extra-info-list"),
			updateRow(s, loc),
		)
		return block
	}

	local := forecast.LocalTime(cur.Timestamp, s.TimezoneOffset)
	block.Children = append(block.Children,
		Text("time", "weather__date", loc.DateLabel(local)).
			Attr("datetime", time.Unix(cur.Timestamp, 0).UTC().Format(time.RFC3339)),
		El("div", "weather__temperature",
			Text("span", "weather__temperature-value", loc.Temperature(cur.Temperature)),
			Node{Tag: "img", Class: "weather__temperature-icon"}.Attr("src", IconPath(cur.Icon)).Attr("alt", "weather"),
		),
		Text("p", "weather__description", loc.Capitalize(cur.Description)),
		El("ul", "weather__extra-info-list",
			Text("li", "weather__extra-info-item", m.FeelsLike+": "+loc.Temperature(cur.FeelsLike)),
			Text("li", "weather__extra-info-item", m.Humidity+": "+loc.Humidity(cur.Humidity)),
			Text("li", "weather__extra-info-item", m.Pressure+": "+loc.Pressure(cur.PressureHPa)),
			Text("li", "weather__extra-info-item", m.Wind+": "+loc.Wind(cur.WindSpeed)),
		),
		updateRow(s, loc),
	)
	return block
}

func updateRow(s session.State, loc *locale.Locale) Node {
	label := ""
	if !s.FetchedAt.IsZero() {
		now := s.RenderedAt
		if now.IsZero() {
			now = s.FetchedAt
		}
		label = loc.UpdatedAgo(s.FetchedAt, now)
	}
	return El("div", "weather__update",
		Text("span", "weather__update-time", label),
		Text("button", "weather__update-button", loc.Messages.Refresh).
			Attr("type", "button").Attr("data-action", "refresh"),
	)
}

// Toggles renders the daily / hourly buttons
func Toggles(s session.State, loc *locale.Locale) Node {
	disabled := s.TogglesDisabled()
	button := func(class, label string, mode session.ViewMode) Node {
		return Text("button", class, label).
			Attr("type", "button").
			Attr("data-action", "view").
			Attr("data-view", string(mode)).
			AddClass("is-active", s.View == mode).
			AddClass("is-disabled", disabled)
	}
	return El("div", "weather__buttons",
		button("weather__button-daily", loc.Messages.Daily, session.ViewDaily),
		button("weather__button-hourly", loc.Messages.Hourly, session.ViewHourly),
	)
}

// Entries returns the display records of the active view
func Entries(s session.State, loc *locale.Locale) []forecast.Entry {
	agg := forecast.NewAggregator(loc)
	if s.View == session.ViewHourly {
		hours := agg.HourlyView(s.Samples, s.TimezoneOffset)
		out := make([]forecast.Entry, len(hours))
		for i, h := range hours {
			out[i] = h.Display
		}
		return out
	}
	days := agg.DailyView(s.Samples, s.TimezoneOffset)
	out := make([]forecast.Entry, len(days))
	for i, d := range days {
		out[i] = d.Display
	}
	return out
}

// Forecast renders either the card list or the detailed day panel
func Forecast(s session.State, loc *locale.Locale) Node {
	entries := Entries(s, loc)
	container := El("div", "weather__forward")

	if s.ActiveDay != nil && *s.ActiveDay < len(entries) {
		container.Children = append(container.Children, detailed(entries[*s.ActiveDay], loc))
		return container
	}

	list := El("ul", "weather__forward-list").AddClass("is-hourly", s.View == session.ViewHourly)
	for i, e := range entries {
		list.Children = append(list.Children, card(i, e))
	}
	container.Children = append(container.Children, list)
	return container
}

func card(index int, e forecast.Entry) Node {
	box := El("div", "weather__forward-weather-box",
		El("div", "weather__forward-temp-group",
			Node{Tag: "img", Class: "weather__forward-icon"}.Attr("src", IconPath(e.DayIcon)).Attr("alt", "day"),
			Text("span", "weather__forward-temp", e.DayTemp),
		),
	)
	if e.NightIcon != "" {
		box.Children = append(box.Children,
			El("div", "weather__forward-temp-group is-night",
				Node{Tag: "img", Class: "weather__forward-icon"}.Attr("src", IconPath(e.NightIcon)).Attr("alt", "night"),
				Text("span", "weather__forward-temp", e.NightTemp),
			))
	}

	return El("li", "weather__forward-item",
		Text("span", "weather__forward-date", e.Date),
		box,
	).Attr("data-index", strconv.Itoa(index)).Attr("data-action", "select_day")
}

func detailed(e forecast.Entry, loc *locale.Locale) Node {
	m := loc.Messages
	return El("div", "weather__detailed detailed",
		El("div", "detailed__header",
			Text("span", "detailed__date", e.Date),
			Text("button", "detailed__button", m.Back).Attr("type", "button").Attr("data-action", "back"),
		),
		El("div", "detailed__body",
			El("div", "detailed__data",
				El("div", "detailed__data-wrapper",
					Text("span", "detailed__temp", e.DayTemp),
					Node{Tag: "img", Class: "detailed__icon"}.Attr("src", IconPath(e.DayIcon)).Attr("alt", "day"),
				),
				Text("span", "detailed__desc", e.Description),
			),
			El("div", "detailed__info",
				El("ul", "detailed__info-list",
					Text("li", "", m.FeelsLike+": "+e.FeelsLike),
					Text("li", "", m.Humidity+": "+e.Humidity),
					Text("li", "", m.Pressure+": "+e.Pressure),
					Text("li", "", m.Wind+": "+e.WindSpeed),
				),
			),
		),
	)
}
