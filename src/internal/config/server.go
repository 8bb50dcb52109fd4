// FILE: logvault/src/internal/config/server.go
package config

import "fmt"

type ServerConfig struct {
	Host string `toml:"host"`
	Port int64  `toml:"port"`

	ReadTimeoutMS  int64 `toml:"read_timeout_ms"`
	WriteTimeoutMS int64 `toml:"write_timeout_ms"`

	// Maximum request body in bytes
	MaxBodySize int64 `toml:"max_body_size"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
