package monitor

import "time"

type Config struct {
	// ResultTTL bounds how long a session's last result is served.
	ResultTTL time.Duration `yaml:"result_ttl"`
	// Debounce delays recomputation after tracker hits; hits arriving while
	// a recomputation is pending are folded into it.
	Debounce time.Duration `yaml:"debounce"`
	// AlertCooldown suppresses repeated alerts for the same domain in one
	// session.
	AlertCooldown time.Duration `yaml:"alert_cooldown"`
	// AlertMargin lowers the alert threshold below the start of the high
	// band, so near-high scores alert too.
	AlertMargin int `yaml:"alert_margin"`
}

func DefaultConfig() Config {
	return Config{
		ResultTTL:     10 * time.Minute,
		Debounce:      400 * time.Millisecond,
		AlertCooldown: 2 * time.Minute,
		AlertMargin:   5,
	}
}
