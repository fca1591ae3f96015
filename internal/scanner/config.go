package scanner

import "time"

type Config struct {
	MaxConcurrency int           `yaml:"max_concurrency"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		FetchTimeout:   45 * time.Second,
	}
}
