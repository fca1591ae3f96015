package server

import "time"

type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr  string        `yaml:"listen_addr"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// AllowedOrigin is sent as Access-Control-Allow-Origin and checked on
	// WebSocket upgrades. "*" allows any origin.
	AllowedOrigin string `yaml:"allowed_origin"`
	// Swagger mounts the API docs under /swagger/.
	Swagger bool `yaml:"swagger"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:    "127.0.0.1:7420",
		ReadTimeout:   15 * time.Second,
		AllowedOrigin: "*",
		Swagger:       true,
	}
}
