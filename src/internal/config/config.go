// FILE: logvault/src/internal/config/config.go
package config

// Config is the root configuration for LogVault
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Auth    AuthConfig    `toml:"auth"`
	Store   StoreConfig   `toml:"store"`
	Query   QueryConfig   `toml:"query"`
	Metrics MetricsConfig `toml:"metrics"`
	Logging LogConfig     `toml:"logging"`
}

// Store backend types
const (
	StoreTypeMemory = "memory"
	StoreTypeMongo  = "mongo"
)

type StoreConfig struct {
	// Backend: "mongo" or "memory"
	Type string `toml:"type"`

	// MongoDB connection
	URI            string `toml:"uri"`
	Database       string `toml:"database"`
	LogCollection  string `toml:"log_collection"`
	UserCollection string `toml:"user_collection"`
	MaxPoolSize    int64  `toml:"max_pool_size"`

	ConnectTimeoutMS int64 `toml:"connect_timeout_ms"`

	// Per-operation budget, 0 disables
	OperationTimeoutMS int64 `toml:"operation_timeout_ms"`

	// Create the unique username index and the log text index at startup
	CreateIndexes bool `toml:"create_indexes"`
}

// Unset query parameter policies for single-field lookups
const (
	// UnsetAbsent keeps an unset parameter as a "field must be absent" clause
	UnsetAbsent = "absent"
	// UnsetOmit drops the clause entirely
	UnsetOmit = "omit"
)

type QueryConfig struct {
	UnsetParams string `toml:"unset_params"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           3000,
			ReadTimeoutMS:  10000,
			WriteTimeoutMS: 10000,
			MaxBodySize:    4 * 1024 * 1024,
		},
		Auth: AuthConfig{
			TokenTTLSeconds:    3600,
			TokenLeewaySeconds: 0,
			PasswordStorage:    PasswordPlain,
			BcryptCost:         10,
			LoginLimit: LoginLimitConfig{
				Enabled:           true,
				AttemptsPerMinute: 5,
				Burst:             3,
				MaxTrackedIPs:     10000,
			},
		},
		Store: StoreConfig{
			Type:               StoreTypeMongo,
			URI:                "mongodb://localhost:27017",
			Database:           "logvault",
			LogCollection:      "logs",
			UserCollection:     "users",
			MaxPoolSize:        100,
			ConnectTimeoutMS:   10000,
			OperationTimeoutMS: 0,
			CreateIndexes:      true,
		},
		Query: QueryConfig{
			UnsetParams: UnsetAbsent,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: *DefaultLogConfig(),
	}
}

// Defaults returns a fresh default configuration
func Defaults() *Config {
	return defaults()
}
