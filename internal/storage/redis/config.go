package redis

// Config holds Redis connection settings.
// Admission state (tournaments, lotteries, queues) is stored without expiry.
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     20,
		MinIdleConns: 2,
	}
}
