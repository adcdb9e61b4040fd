// Package geo turns browser geolocation reports into coordinates
package geo

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrUnsupported means no position source is available
	ErrUnsupported = errors.New("geolocation unsupported")

	// ErrPermissionDenied means the user or environment rejected the request
	ErrPermissionDenied = errors.New("geolocation permission denied")
)

// Report codes sent by the browser in Report.Error. Any other code
// ("unavailable", "timeout") is a failed permission request.
const (
	ReportDenied      = "denied"
	ReportUnsupported = "unsupported"
)

// Report is what the page sends after asking the browser for a position
type Report struct {
	Lat   *float64 `json:"lat,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
	Error string   `json:"error,omitempty"`
}

// Position is a resolved coordinate pair
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String returns "lat,lon" with four decimals
func (p Position) String() string {
	return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lon)
}

// Resolve picks the reported coordinates, falling back to the configured
// position when the browser has none. Denied reports never fall back.
func Resolve(r Report, fallback *Position) (Position, error) {
	code := strings.ToLower(strings.TrimSpace(r.Error))

	switch code {
	case "":
		if r.Lat != nil && r.Lon != nil {
			p := Position{Lat: *r.Lat, Lon: *r.Lon}
			if !valid(p) {
				return Position{}, fmt.Errorf("%w: coordinates out of range: %s", ErrUnsupported, p)
			}
			return p, nil
		}
	case ReportDenied:
		return Position{}, ErrPermissionDenied
	case ReportUnsupported:
	default:
		// Timeouts and unavailable positions are reported as a failed
		// permission request, the same way the browser callback treats them
		return Position{}, fmt.Errorf("%w: %s", ErrPermissionDenied, code)
	}

	if fallback != nil {
		return *fallback, nil
	}
	return Position{}, ErrUnsupported
}

func valid(p Position) bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}
