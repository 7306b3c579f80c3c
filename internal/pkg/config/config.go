package config

import (
	"io"
	"time"
)

// TimeConfig reads integer values as durations of a fixed unit.
type TimeConfig interface {
	// GetSecond reads the value for key as a number of seconds.
	GetSecond(key string) time.Duration

	// GetMinute reads the value for key as a number of minutes.
	GetMinute(key string) time.Duration

	// GetDay reads the value for key as a number of days (24h).
	GetDay(key string) time.Duration
}

// NumberConfig reads numeric configuration values.
type NumberConfig interface {
	// GetInt reads the value for key as an int.
	GetInt(key string) int

	// GetInt32 reads the value for key as an int32.
	GetInt32(key string) int32

	// GetInt64 reads the value for key as an int64.
	GetInt64(key string) int64

	// GetUint16 reads the value for key as a uint16.
	GetUint16(key string) uint16

	// GetFloat64 reads the value for key as a float64.
	GetFloat64(key string) float64
}

// Config is the read surface handed to modules. Implementations return the
// zero value when a key is missing or cannot be converted.
type Config interface {
	io.Closer
	TimeConfig
	NumberConfig

	// GetBool reads the value for key as a bool.
	GetBool(key string) bool

	// GetString reads the value for key as a string.
	GetString(key string) string

	// GetArray reads the value for key as a string slice. Both native list
	// values and comma-separated strings are accepted.
	GetArray(key string) []string
}
