package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

// Config is shared by all backends; each reads the fields it understands.
type Config struct {
	Client    Client        `yaml:"client"`
	Timeout   time.Duration `yaml:"timeout"`
	IdleAfter time.Duration `yaml:"idle_after"`
	Headless  bool          `yaml:"headless"`
	UserAgent string        `yaml:"user_agent"`
}

func DefaultConfig() Config {
	return Config{
		Client:    ClientNetHTTP,
		Timeout:   30 * time.Second,
		IdleAfter: 2 * time.Second,
		Headless:  true,
		UserAgent: "nyxguard/0.1",
	}
}
