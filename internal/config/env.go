package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Get returns the value of the environment variable key if set.
// If not set, and key+"_FILE" is set, the file at that path is read and
// its trimmed contents are returned. If neither are set, def is returned.
func Get(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if path := os.Getenv(key + "_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return def
}

// GetInt returns the integer value of key, or def if unset or malformed.
func GetInt(key string, def int) int {
	if val := Get(key, ""); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

// GetInt64 is GetInt for 64-bit values. A trailing K, M or G multiplies by
// the matching power of 1024.
func GetInt64(key string, def int64) int64 {
	val := strings.ToUpper(strings.TrimSpace(Get(key, "")))
	if val == "" {
		return def
	}
	mult := int64(1)
	switch {
	case strings.HasSuffix(val, "K"):
		mult = 1 << 10
	case strings.HasSuffix(val, "M"):
		mult = 1 << 20
	case strings.HasSuffix(val, "G"):
		mult = 1 << 30
	}
	if mult > 1 {
		val = val[:len(val)-1]
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return def
	}
	return n * mult
}

// GetFloat returns the float value of key, or def if unset or malformed.
func GetFloat(key string, def float64) float64 {
	if val := Get(key, ""); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return def
}

// GetBool returns the boolean value of key.
// Recognised true values are: 1, t, true, y, yes (case-insensitive).
// Recognised false values are: 0, f, false, n, no.
func GetBool(key string, def bool) bool {
	if val := Get(key, ""); val != "" {
		switch strings.ToLower(val) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

// GetDuration returns the duration value of key. Bare numbers are read as
// milliseconds.
func GetDuration(key string, def time.Duration) time.Duration {
	val := strings.TrimSpace(Get(key, ""))
	if val == "" {
		return def
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	return def
}
