package config

import (
	"fmt"
	"strings"

	"github.com/kalambet/jobboard/internal/storage"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Static   StaticConfig
	Auth     AuthConfig
	Entities EntitiesConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           int
	MaxConnections int
}

type StorageConfig struct {
	Backend     string
	DataDir     string
	PostgresDSN string
}

type StaticConfig struct {
	Dir string
}

// AuthConfig holds the single demo credential accepted by /api/login.
type AuthConfig struct {
	Username string
	Password string
}

type EntitiesConfig struct {
	// Extra is a comma-separated list of additional entity names served
	// without field mapping.
	Extra string
}

type LogConfig struct {
	Level string
	JSON  bool
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           3000,
			MaxConnections: 256,
		},
		Storage: StorageConfig{
			Backend: storage.BackendFile,
			DataDir: defaultDataDir(),
		},
		Static: StaticConfig{
			Dir: "public",
		},
		Auth: AuthConfig{
			Username: "admin",
			Password: "password",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/jobboard/config.json, then applies JOBBOARD_* environment
// overrides. Secrets (the Postgres DSN and the login password) are read from
// the environment only.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d out of range", c.Server.Port)
	}
	switch c.Storage.Backend {
	case storage.BackendFile, storage.BackendSQLite:
	case storage.BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("missing required config: storage.backend is postgres but JOBBOARD_POSTGRES_DSN is not set")
		}
	default:
		return fmt.Errorf("invalid config: unknown storage.backend %q (want file, sqlite or postgres)", c.Storage.Backend)
	}
	if c.Storage.DataDir == "" && c.Storage.Backend != storage.BackendPostgres {
		return fmt.Errorf("missing required config: storage.data_dir")
	}
	return nil
}

// ExtraEntities returns the trimmed, non-empty names listed in entities.extra.
func (c Config) ExtraEntities() []string {
	var names []string
	for _, name := range strings.Split(c.Entities.Extra, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
