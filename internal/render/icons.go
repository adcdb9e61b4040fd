package render

// fallbackIcon is used for unknown condition codes
const fallbackIcon = "clear-day"

var iconMapping = map[string]string{
	"01d": "clear-day",
	"02d": "partly-cloudy-day",
	"03d": "cloudy",
	"04d": "cloudy",
	"09d": "rain",
	"10d": "rain",
	"11d": "thunderstorms-day-rain",
	"13d": "snow",
	"50d": "mist",

	"01n": "clear-night",
	"02n": "partly-cloudy-night",
	"03n": "cloudy",
	"04n": "cloudy",
	"09n": "rain",
	"10n": "rain",
	"11n": "thunderstorms-night-rain",
	"13n": "snow",
	"50n": "mist",
}

// IconPath maps an OpenWeatherMap condition code to an animated icon file
func IconPath(code string) string {
	name, ok := iconMapping[code]
	if !ok {
		name = fallbackIcon
	}
	return "./icon/animated/" + name + ".svg"
}
