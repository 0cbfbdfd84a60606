// Package config handles loading taskboard.toml configuration files.
//
// Values are resolved in this order, later sources winning: built-in
// defaults, the global config file, the project taskboard.toml, a .env file
// next to it, and finally the process environment. Command-line flags are
// applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/amonks/taskboard/internal/paths"
)

// FileName is the project-level config file name.
const FileName = "taskboard.toml"

// Defaults used when nothing else is configured.
const (
	DefaultAPIURL      = "http://localhost:8000"
	DefaultWebAddr     = "localhost:5173"
	DefaultBackendAddr = ":8000"
	DefaultLogLevel    = "info"
)

// Config represents the taskboard.toml configuration file.
type Config struct {
	Client  Client  `toml:"client"`
	Web     Web     `toml:"web"`
	Backend Backend `toml:"backend"`
	Log     Log     `toml:"log"`
}

// Client configures the CLI and terminal board.
type Client struct {
	// APIURL is the base URL of the task backend.
	APIURL string `toml:"api-url"`
	// StateDir holds the durable client storage (the logged-in identity).
	StateDir string `toml:"state-dir"`
}

// Web configures the browser client.
type Web struct {
	Addr string `toml:"addr"`
}

// Backend configures the task backend served by `taskboard serve`.
type Backend struct {
	Addr string `toml:"addr"`
	// DatabaseURL selects the store: postgres://... or sqlite://path.
	DatabaseURL    string   `toml:"database-url"`
	AllowedOrigins []string `toml:"allowed-origins"`
}

// Log configures logging for every component.
type Log struct {
	Level string `toml:"level"`
}

// Environment variables that override file values.
const (
	EnvAPIURL         = "TASKBOARD_API_URL"
	EnvStateDir       = "TASKBOARD_STATE_DIR"
	EnvWebAddr        = "TASKBOARD_WEB_ADDR"
	EnvBackendAddr    = "TASKBOARD_ADDR"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvAllowedOrigins = "TASKBOARD_ALLOWED_ORIGINS"
	EnvLogLevel       = "TASKBOARD_LOG_LEVEL"
)

// Load loads configuration from dir and the global config file.
// Missing files are not an error.
func Load(dir string) (*Config, error) {
	globalPath, err := globalConfigPath()
	if err != nil {
		return nil, err
	}

	globalCfg, globalMeta, err := loadConfigFile(globalPath)
	if err != nil {
		return nil, err
	}

	projectCfg, projectMeta, err := loadConfigFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}

	dotenv, err := loadDotenv(filepath.Join(dir, ".env"))
	if err != nil {
		return nil, err
	}

	merged := mergeConfigs(globalCfg, projectCfg, globalMeta, projectMeta)
	applyEnv(merged, func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	})
	applyDefaults(merged)
	return merged, nil
}

// ResolveStateDir returns the configured state directory or the default one.
func (c *Config) ResolveStateDir() (string, error) {
	return paths.ResolveWithDefault(c.Client.StateDir, paths.DefaultStateDir)
}

// ResolveDatabaseURL returns the configured database URL, defaulting to a
// sqlite file in the state directory.
func (c *Config) ResolveDatabaseURL() (string, error) {
	if c.Backend.DatabaseURL != "" {
		return c.Backend.DatabaseURL, nil
	}
	dir, err := c.ResolveStateDir()
	if err != nil {
		return "", err
	}
	return "sqlite://" + filepath.Join(dir, "taskboard.db"), nil
}

func globalConfigPath() (string, error) {
	dir, err := paths.DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return &cfg, meta, nil
}

func loadDotenv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return values, nil
}

func mergeConfigs(globalCfg, projectCfg *Config, globalMeta, projectMeta toml.MetaData) *Config {
	if globalCfg == nil {
		globalCfg = &Config{}
	}
	if projectCfg == nil {
		projectCfg = &Config{}
	}

	merged := Config{}
	merged.Client.APIURL = mergeString(projectMeta.IsDefined("client", "api-url"), projectCfg.Client.APIURL, globalCfg.Client.APIURL)
	merged.Client.StateDir = mergeString(projectMeta.IsDefined("client", "state-dir"), projectCfg.Client.StateDir, globalCfg.Client.StateDir)
	merged.Web.Addr = mergeString(projectMeta.IsDefined("web", "addr"), projectCfg.Web.Addr, globalCfg.Web.Addr)
	merged.Backend.Addr = mergeString(projectMeta.IsDefined("backend", "addr"), projectCfg.Backend.Addr, globalCfg.Backend.Addr)
	merged.Backend.DatabaseURL = mergeString(projectMeta.IsDefined("backend", "database-url"), projectCfg.Backend.DatabaseURL, globalCfg.Backend.DatabaseURL)
	merged.Log.Level = mergeString(projectMeta.IsDefined("log", "level"), projectCfg.Log.Level, globalCfg.Log.Level)
	if projectMeta.IsDefined("backend", "allowed-origins") {
		merged.Backend.AllowedOrigins = append([]string(nil), projectCfg.Backend.AllowedOrigins...)
	} else if globalMeta.IsDefined("backend", "allowed-origins") {
		merged.Backend.AllowedOrigins = append([]string(nil), globalCfg.Backend.AllowedOrigins...)
	}

	return &merged
}

func mergeString(projectDefined bool, projectValue, globalValue string) string {
	value := globalValue
	if projectDefined {
		value = projectValue
	}
	return strings.TrimSpace(value)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(target *string, key string) {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
	set(&cfg.Client.APIURL, EnvAPIURL)
	set(&cfg.Client.StateDir, EnvStateDir)
	set(&cfg.Web.Addr, EnvWebAddr)
	set(&cfg.Backend.Addr, EnvBackendAddr)
	set(&cfg.Backend.DatabaseURL, EnvDatabaseURL)
	set(&cfg.Log.Level, EnvLogLevel)
	if value, ok := lookup(EnvAllowedOrigins); ok {
		cfg.Backend.AllowedOrigins = splitList(value)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Client.APIURL == "" {
		cfg.Client.APIURL = DefaultAPIURL
	}
	if cfg.Web.Addr == "" {
		cfg.Web.Addr = DefaultWebAddr
	}
	if cfg.Backend.Addr == "" {
		cfg.Backend.Addr = DefaultBackendAddr
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Backend.AllowedOrigins == nil {
		cfg.Backend.AllowedOrigins = []string{"http://" + DefaultWebAddr}
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
