package services

import "time"

const (
	KeyRateLimit = "ratelimit:%s:%s"

	DefaultRateLimitWindow = time.Minute
)
