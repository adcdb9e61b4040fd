package weather

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yegors/co-wx/internal/forecast"
)

// Query identifies a location either by city name or by coordinates
type Query struct {
	City   string  `json:"city,omitempty"`
	Lat    float64 `json:"lat,omitempty"`
	Lon    float64 `json:"lon,omitempty"`
	Coords bool    `json:"coords"`
}

// CityQuery builds a name based query
func CityQuery(name string) Query {
	return Query{City: name}
}

// CoordsQuery builds a coordinate based query
func CoordsQuery(lat, lon float64) Query {
	return Query{Lat: lat, Lon: lon, Coords: true}
}

// Validate reports ErrInvalidQuery for empty names and out of range coordinates
func (q Query) Validate() error {
	if q.Coords {
		if math.IsNaN(q.Lat) || q.Lat < -90 || q.Lat > 90 {
			return fmt.Errorf("%w: latitude %v", ErrInvalidQuery, q.Lat)
		}
		if math.IsNaN(q.Lon) || q.Lon < -180 || q.Lon > 180 {
			return fmt.Errorf("%w: longitude %v", ErrInvalidQuery, q.Lon)
		}
		return nil
	}
	if strings.TrimSpace(q.City) == "" {
		return fmt.Errorf("%w: empty city name", ErrInvalidQuery)
	}
	return nil
}

// String returns the city name or "lat,lon" for logging
func (q Query) String() string {
	if q.Coords {
		return strconv.FormatFloat(q.Lat, 'f', 4, 64) + "," + strconv.FormatFloat(q.Lon, 'f', 4, 64)
	}
	return q.City
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Coords {
		v.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
		v.Set("lon", strconv.FormatFloat(q.Lon, 'f', -1, 64))
	} else {
		v.Set("q", q.City)
	}
	return v
}

// Current is the observed weather at the queried location
type Current struct {
	City        string  `json:"city"`
	Timestamp   int64   `json:"dt"`
	Temperature float64 `json:"temp"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	PressureHPa float64 `json:"pressure_hpa"`
	WindSpeed   float64 `json:"wind_speed"`
	Icon        string  `json:"icon"`
	Description string  `json:"description"`
}

// Forecast is the 5 day / 3 hour feed for a location
type Forecast struct {
	City           string            `json:"city"`
	TimezoneOffset int               `json:"timezone_offset"` // seconds east of UTC
	Samples        []forecast.Sample `json:"samples"`
}

// Snapshot is the result of one combined lookup
type Snapshot struct {
	City           string            `json:"city"`
	Current        *Current          `json:"current"`
	Samples        []forecast.Sample `json:"samples"`
	TimezoneOffset int               `json:"timezone_offset"`
	FetchedAt      time.Time         `json:"fetched_at"`
}

// Suggestion is one geocoding candidate. DisplayName and Text are filled in
// by ranking.
type Suggestion struct {
	Name        string            `json:"name"`
	LocalNames  map[string]string `json:"local_names,omitempty"`
	State       string            `json:"state,omitempty"`
	Country     string            `json:"country"`
	Lat         float64           `json:"lat"`
	Lon         float64           `json:"lon"`
	DisplayName string            `json:"display_name,omitempty"`
	Text        string            `json:"text,omitempty"`
}

// OpenWeatherMap wire shapes

type owmMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Pressure  float64 `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

type owmCondition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmWind struct {
	Speed float64 `json:"speed"`
}

type currentResponse struct {
	Name     string         `json:"name"`
	Dt       int64          `json:"dt"`
	Timezone int            `json:"timezone"`
	Main     owmMain        `json:"main"`
	Weather  []owmCondition `json:"weather"`
	Wind     owmWind        `json:"wind"`
}

type forecastItem struct {
	Dt      int64          `json:"dt"`
	Main    owmMain        `json:"main"`
	Weather []owmCondition `json:"weather"`
	Wind    owmWind        `json:"wind"`
}

type forecastResponse struct {
	List []forecastItem `json:"list"`
	City struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

func firstCondition(c []owmCondition) owmCondition {
	if len(c) == 0 {
		return owmCondition{}
	}
	return c[0]
}

func (r currentResponse) toCurrent() *Current {
	cond := firstCondition(r.Weather)
	return &Current{
		City:        r.Name,
		Timestamp:   r.Dt,
		Temperature: r.Main.Temp,
		FeelsLike:   r.Main.FeelsLike,
		Humidity:    r.Main.Humidity,
		PressureHPa: r.Main.Pressure,
		WindSpeed:   r.Wind.Speed,
		Icon:        cond.Icon,
		Description: cond.Description,
	}
}

func (r forecastResponse) toForecast() *Forecast {
	samples := make([]forecast.Sample, 0, len(r.List))
	for _, item := range r.List {
		cond := firstCondition(item.Weather)
		samples = append(samples, forecast.Sample{
			Timestamp:   item.Dt,
			Temperature: item.Main.Temp,
			FeelsLike:   item.Main.FeelsLike,
			Humidity:    item.Main.Humidity,
			PressureHPa: item.Main.Pressure,
			WindSpeed:   item.Wind.Speed,
			Icon:        cond.Icon,
			Description: cond.Description,
		})
	}
	return &Forecast{
		City:           r.City.Name,
		TimezoneOffset: r.City.Timezone,
		Samples:        samples,
	}
}
