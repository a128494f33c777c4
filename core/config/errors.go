package config

import "errors"

var (
	// ErrNilConfig is returned when Load receives a nil pointer.
	ErrNilConfig = errors.New("config: nil config pointer")

	// ErrParse wraps failures from the environment parser.
	ErrParse = errors.New("config: failed to parse environment")
)
