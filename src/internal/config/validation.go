// FILE: logvault/src/internal/config/validation.go
package config

import (
	"fmt"
	"strings"

	lconfig "github.com/lixenwraith/config"
	"golang.org/x/crypto/bcrypt"
)

// Validate checks a configuration built outside Load
func (c *Config) Validate() error {
	return validateConfig(c)
}

// validateConfig is the centralized validator for the entire configuration
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validateAuth(&cfg.Auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := validateStore(&cfg.Store); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	switch cfg.Query.UnsetParams {
	case UnsetAbsent, UnsetOmit:
	default:
		return fmt.Errorf("query: invalid unset_params '%s' (must be '%s' or '%s')",
			cfg.Query.UnsetParams, UnsetAbsent, UnsetOmit)
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics: path must start with /")
	}

	if err := validateLogConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func validateServer(s *ServerConfig) error {
	if err := lconfig.Port(s.Port); err != nil {
		return err
	}

	if s.Host != "" && s.Host != "0.0.0.0" && s.Host != "localhost" {
		if err := lconfig.IPAddress(s.Host); err != nil {
			return err
		}
	}

	if s.ReadTimeoutMS < 0 || s.WriteTimeoutMS < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}

	if s.MaxBodySize <= 0 {
		return fmt.Errorf("max_body_size must be positive")
	}

	return nil
}

func validateAuth(a *AuthConfig) error {
	if err := lconfig.NonEmpty(a.Secret); err != nil {
		return fmt.Errorf("secret is required (set LOGVAULT_AUTH_SECRET)")
	}

	if a.TokenTTLSeconds <= 0 {
		return fmt.Errorf("token_ttl_seconds must be positive")
	}
	if a.TokenLeewaySeconds < 0 {
		return fmt.Errorf("token_leeway_seconds cannot be negative")
	}

	switch a.PasswordStorage {
	case PasswordPlain:
	case PasswordBcrypt:
		if cost := int(a.BcryptCost); cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
		}
	default:
		return fmt.Errorf("invalid password_storage '%s' (must be '%s' or '%s')",
			a.PasswordStorage, PasswordPlain, PasswordBcrypt)
	}

	if a.LoginLimit.Enabled {
		if a.LoginLimit.AttemptsPerMinute <= 0 {
			return fmt.Errorf("login_limit.attempts_per_minute must be positive")
		}
		if a.LoginLimit.Burst < 1 {
			return fmt.Errorf("login_limit.burst must be at least 1")
		}
		if a.LoginLimit.MaxTrackedIPs < 1 {
			return fmt.Errorf("login_limit.max_tracked_ips must be at least 1")
		}
	}

	return nil
}

func validateStore(s *StoreConfig) error {
	switch s.Type {
	case StoreTypeMemory:
		return nil
	case StoreTypeMongo:
	default:
		return fmt.Errorf("unknown type '%s'", s.Type)
	}

	if err := lconfig.NonEmpty(s.URI); err != nil {
		return fmt.Errorf("mongo store requires 'uri'")
	}
	if !strings.HasPrefix(s.URI, "mongodb://") && !strings.HasPrefix(s.URI, "mongodb+srv://") {
		return fmt.Errorf("uri must use mongodb:// or mongodb+srv:// scheme")
	}
	if err := lconfig.NonEmpty(s.Database); err != nil {
		return fmt.Errorf("mongo store requires 'database'")
	}
	if s.LogCollection == "" || s.UserCollection == "" {
		return fmt.Errorf("mongo store requires 'log_collection' and 'user_collection'")
	}
	if s.LogCollection == s.UserCollection {
		return fmt.Errorf("log_collection and user_collection must differ")
	}
	if s.ConnectTimeoutMS < 0 || s.OperationTimeoutMS < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}
	if s.MaxPoolSize < 0 {
		return fmt.Errorf("max_pool_size cannot be negative")
	}

	return nil
}
