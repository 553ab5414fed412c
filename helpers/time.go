package helpers

import "time"

// IntSecondDefault converts config seconds, zero means default.
func IntSecondDefault(x int, def time.Duration) time.Duration {
	if x <= 0 {
		return def
	}
	return time.Duration(x) * time.Second
}
