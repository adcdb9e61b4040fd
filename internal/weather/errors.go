package weather

import "errors"

var (
	// ErrNotFound is returned when the API answers 404 for a location
	ErrNotFound = errors.New("location not found")

	// ErrTransient covers every other failure: transport, status, decoding
	ErrTransient = errors.New("weather data unavailable")

	// ErrInvalidQuery is returned before any request is made
	ErrInvalidQuery = errors.New("invalid location query")
)
