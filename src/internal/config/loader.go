// FILE: logvault/src/internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	lconfig "github.com/lixenwraith/config"
)

const envPrefix = "LOGVAULT_"

// Load builds the configuration from defaults, the TOML file, LOGVAULT_* environment and CLI args.
// An explicit configPath overrides LOGVAULT_CONFIG_FILE lookup.
func Load(configPath string, cliArgs []string) (*Config, error) {
	explicit := configPath != ""
	if !explicit {
		configPath = GetConfigPath()
	}

	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaults()).
		WithEnvPrefix(envPrefix).
		WithFile(configPath).
		WithArgs(cliArgs).
		WithEnvTransform(customEnvTransform).
		WithSources(
			lconfig.SourceCLI,
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()

	if err != nil {
		// Missing file is fine unless it was asked for
		if explicit || !strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if err := handleLegacyEnv(cfg); err != nil {
		return nil, err
	}

	finalConfig := &Config{}
	if err := cfg.Scan(finalConfig, ""); err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}

	return finalConfig, validateConfig(finalConfig)
}

func customEnvTransform(path string) string {
	env := strings.ReplaceAll(path, ".", "_")
	env = strings.ToUpper(env)
	env = envPrefix + env
	return env
}

// GetConfigPath resolves the config file from LOGVAULT_CONFIG_FILE / LOGVAULT_CONFIG_DIR
func GetConfigPath() string {
	if configFile := os.Getenv("LOGVAULT_CONFIG_FILE"); configFile != "" {
		if filepath.IsAbs(configFile) {
			return configFile
		}
		if configDir := os.Getenv("LOGVAULT_CONFIG_DIR"); configDir != "" {
			return filepath.Join(configDir, configFile)
		}
		return configFile
	}

	if configDir := os.Getenv("LOGVAULT_CONFIG_DIR"); configDir != "" {
		return filepath.Join(configDir, "logvault.toml")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "logvault.toml")
	}

	return "logvault.toml"
}

// handleLegacyEnv maps the bare SECRET, MONGODB_URL and PORT variables used by existing
// deployments. The LOGVAULT_* form wins when both are set.
func handleLegacyEnv(cfg *lconfig.Config) error {
	if v := os.Getenv("SECRET"); v != "" && os.Getenv(customEnvTransform("auth.secret")) == "" {
		cfg.Set("auth.secret", v)
	}

	if v := os.Getenv("MONGODB_URL"); v != "" && os.Getenv(customEnvTransform("store.uri")) == "" {
		cfg.Set("store.uri", v)
	}

	if v := os.Getenv("PORT"); v != "" && os.Getenv(customEnvTransform("server.port")) == "" {
		port, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Set("server.port", port)
	}

	return nil
}
