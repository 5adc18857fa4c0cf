package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "medibook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Scheduling defaults applied when a provider's calendar leaves a field
	// unset. These are the single source of truth; services must not
	// re-declare them inline.
	DefaultDefaultStartOfDay   = "09:00"
	DefaultDefaultEndOfDay     = "17:00"
	DefaultDefaultSlotDuration = 30

	DefaultSearchHorizonDays = 14

	DefaultSlotLockTTL = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultNotifyTopic    = "appointment.notifications"
	DefaultNotifyDLQTopic = "appointment.notifications.dlq"
)

// DefaultWorkingDays is the fallback weekly calendar for providers that have
// not configured working days.
var DefaultWorkingDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
