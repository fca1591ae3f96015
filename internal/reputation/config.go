package reputation

import "time"

const DefaultBaseURL = "https://www.virustotal.com/api/v3/domains"

type Config struct {
	BaseURL string `yaml:"base_url"`
	// CacheTTL applies to checked and no_data outcomes.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// ErrorCacheTTL applies to error outcomes.
	ErrorCacheTTL time.Duration `yaml:"error_cache_ttl"`
	// MinRequestInterval is the global spacing between outgoing requests,
	// across all domains. Zero means the default; a negative value disables
	// the limit.
	MinRequestInterval time.Duration `yaml:"min_request_interval"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`

	// Consecutive failures that open the breaker, and how long it stays open.
	BreakerFailures    uint32        `yaml:"breaker_failures"`
	BreakerOpenTimeout time.Duration `yaml:"breaker_open_timeout"`

	// RedisURL selects the Redis cache when set.
	RedisURL string `yaml:"redis_url"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:            DefaultBaseURL,
		CacheTTL:           6 * time.Hour,
		ErrorCacheTTL:      5 * time.Minute,
		MinRequestInterval: 16 * time.Second,
		RequestTimeout:     15 * time.Second,
		BreakerFailures:    5,
		BreakerOpenTimeout: time.Minute,
	}
}
