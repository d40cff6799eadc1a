package cache

import "time"

// Config contains cache configuration
type Config struct {
	RedisURL     string
	PoolSize     int
	MinIdleConns int
	TTL          time.Duration
	KeyPrefix    string
}

// Stats represents cache performance statistics
type Stats struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Errors      int64   `json:"errors"`
	HitRate     float64 `json:"hit_rate"`
	MemoryUsage int64   `json:"memory_usage_bytes"`
}
