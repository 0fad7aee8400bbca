// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/reelvault/reelvault/internal/log"
)

// ParseString reads a string from an environment variable or returns the
// default value. An empty variable counts as unset.
func ParseString(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		logger := log.WithComponent("config")
		logger.Debug().
			Str("key", key).
			Str("source", "environment").
			Msg("using environment variable")
		return v
	}
	return defaultValue
}

// ParseInt reads an integer from an environment variable or returns the
// default value. Invalid values fall back to the default with a warning.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
	}
	return defaultValue
}

// ParseBool reads a boolean from an environment variable or returns the
// default value. Accepts the forms understood by strconv.ParseBool.
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Bool("default", defaultValue).
			Msg("invalid boolean in environment variable, using default")
	}
	return defaultValue
}

// ParseDuration reads a duration in Go duration format (e.g. "90m") from an
// environment variable or returns the default value.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Dur("default", defaultValue).
			Msg("invalid duration in environment variable, using default")
	}
	return defaultValue
}
