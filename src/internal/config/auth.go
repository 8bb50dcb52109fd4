// FILE: logvault/src/internal/config/auth.go
package config

// Password storage policies
const (
	// PasswordPlain stores and compares the password verbatim
	PasswordPlain = "plain"
	// PasswordBcrypt stores a bcrypt hash
	PasswordBcrypt = "bcrypt"
)

type AuthConfig struct {
	// HMAC key for HS256 tokens
	Secret string `toml:"secret"`

	// Token lifetime
	TokenTTLSeconds int64 `toml:"token_ttl_seconds"`

	// Clock skew tolerated on exp
	TokenLeewaySeconds int64 `toml:"token_leeway_seconds"`

	// "plain" or "bcrypt"
	PasswordStorage string `toml:"password_storage"`
	BcryptCost      int64  `toml:"bcrypt_cost"`

	// Brute-force protection for /login
	LoginLimit LoginLimitConfig `toml:"login_limit"`
}

type LoginLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	AttemptsPerMinute float64 `toml:"attempts_per_minute"`
	Burst             int64   `toml:"burst"`
	MaxTrackedIPs     int64   `toml:"max_tracked_ips"`
}
