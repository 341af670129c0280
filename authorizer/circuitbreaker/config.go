package circuitbreaker

import "time"

// DefaultConfig provides balanced settings for most services
func DefaultConfig() Config {
	return Config{
		MaxRequests:         3,
		Interval:            2 * time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 15,
		FailureRatio:        0.5,
		MinRequests:         10,
	}
}

// StoreConfig trips faster than DefaultConfig. Card lookups sit on the
// authorization path, so a dead store should fail requests quickly.
func StoreConfig() Config {
	return Config{
		MaxRequests:         2,
		Interval:            time.Minute,
		Timeout:             10 * time.Second,
		ConsecutiveFailures: 5,
		FailureRatio:        0.4,
		MinRequests:         5,
	}
}
