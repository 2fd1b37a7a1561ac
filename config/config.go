// Package config loads configuration of appregistry command from a yaml
// or json file with overrides from APPREGISTRY_ environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kjk/appregistry/miniostore"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	BackendFile    = "file"
	BackendJournal = "journal"
	BackendMinio   = "minio"
	BackendWinreg  = "winreg"
)

// EnvPrefix is the prefix of environment variables overriding the config.
// Nested keys are separated with "__" e.g. APPREGISTRY_MINIO__BUCKET
const EnvPrefix = "APPREGISTRY_"

type Config struct {
	Organization string `json:"organization"`
	Application  string `json:"application"`
	// Backend selects the store: "file", "journal", "minio" or "winreg"
	Backend string `json:"backend"`
	// Dir is the data directory of "file" and "journal" backends
	Dir string `json:"dir"`
	// LogDir is where log files are written, empty means no log files
	LogDir  string            `json:"log_dir"`
	Verbose bool              `json:"verbose"`
	Minio   miniostore.Config `json:"minio"`
}

func defaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "appregistry"
	}
	return filepath.Join(dir, "appregistry")
}

// SetDefaults applies defaults to fields not set
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.Dir == "" {
		c.Dir = defaultDir()
	}
}

// Validate checks the backend and its settings
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendJournal:
		if c.Dir == "" {
			return fmt.Errorf("dir is required for backend %s", c.Backend)
		}
	case BackendMinio:
		if err := c.Minio.Validate(); err != nil {
			return fmt.Errorf("minio: %w", err)
		}
	case BackendWinreg:
		// no settings
	default:
		return fmt.Errorf("unknown backend '%s'", c.Backend)
	}
	if strings.ContainsAny(c.Organization, "/\\") || strings.ContainsAny(c.Application, "/\\") {
		return fmt.Errorf("organization and application can't contain path separators")
	}
	return nil
}

func parserForPath(path string) (koanf.Parser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	}
	return nil, fmt.Errorf("unsupported config format: %s", ext)
}

// Load reads config from path (if not empty) and environment variables.
// Defaults are applied but the result is not validated: the caller
// validates after applying command line overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		parser, err := parserForPath(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	prefix := strings.ToLower(EnvPrefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), prefix)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	return &cfg, nil
}
