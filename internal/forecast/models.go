package forecast

// Sample is one timestamped reading from the 3-hour forecast feed
type Sample struct {
	Timestamp   int64   `json:"dt"`           // Unix seconds, UTC
	Temperature float64 `json:"temp"`         // °C
	FeelsLike   float64 `json:"feels_like"`   // °C
	Humidity    int     `json:"humidity"`     // percent 0-100
	PressureHPa float64 `json:"pressure_hpa"` // hPa
	WindSpeed   float64 `json:"wind_speed"`   // m/s
	Icon        string  `json:"icon"`         // condition code with d/n variant, e.g. "10d"
	Description string  `json:"description"`  // lowercase source text
}

// Entry is the display record shared by the daily and hourly views.
// Hourly entries leave the night and detail fields empty.
type Entry struct {
	Date        string `json:"date"`
	DayTemp     string `json:"day_temp"`
	NightTemp   string `json:"night_temp"`
	DayIcon     string `json:"day_icon"`
	NightIcon   string `json:"night_icon"`
	FeelsLike   string `json:"feels_like,omitempty"`
	Humidity    string `json:"humidity,omitempty"`
	WindSpeed   string `json:"wind_speed,omitempty"`
	Pressure    string `json:"pressure,omitempty"`
	Description string `json:"description,omitempty"`
}

// DailySummary is one calendar day of the forecast
type DailySummary struct {
	DayKey  string `json:"day_key"` // YYYY-MM-DD in shifted UTC
	Day     Sample `json:"day"`
	Night   Sample `json:"night"`
	Display Entry  `json:"display"`
}

// HourlySummary is one raw sample in the hourly view
type HourlySummary struct {
	Sample  Sample `json:"sample"`
	Display Entry  `json:"display"`
}
