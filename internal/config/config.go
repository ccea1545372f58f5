// Package config loads and stores CLI configuration in the XDG config dir.
// Values come from config.json, overridden by TENANTFORGE_* environment
// variables, with defaults for anything left unset. Secrets never live here;
// connection passwords go to the OS keychain.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	pkgerrors "github.com/pkg/errors"

	"tenantforge/cli/internal/xdg"
)

// Config holds non-sensitive CLI settings.
type Config struct {
	LogLevel    string       `json:"log_level" env:"TENANTFORGE_LOG_LEVEL" env-default:"info" env-description:"trace, debug, info, warn or error"`
	LogFormat   string       `json:"log_format" env:"TENANTFORGE_LOG_FORMAT" env-default:"text" env-description:"text or json"`
	Concurrency int          `json:"concurrency" env:"TENANTFORGE_CONCURRENCY" env-default:"1" env-description:"connections executed at once"`
	Classifier  string       `json:"classifier" env:"TENANTFORGE_CLASSIFIER" env-default:"lexical" env-description:"lexical or substring"`
	Store       StoreConfig  `json:"store"`
	Exec        ExecConfig   `json:"exec"`
	Server      ServerConfig `json:"server"`
}

// StoreConfig locates the project store.
type StoreConfig struct {
	// Path overrides the default $XDG_DATA_HOME/tenantforge/projects.json.
	Path        string `json:"path" env:"TENANTFORGE_STORE_PATH"`
	UseKeychain bool   `json:"use_keychain" env:"TENANTFORGE_USE_KEYCHAIN" env-default:"false"`
}

// ExecConfig tunes connections.
type ExecConfig struct {
	// ConnectTimeout is a Go duration string. Empty means no timeout.
	ConnectTimeout  string `json:"connect_timeout" env:"TENANTFORGE_CONNECT_TIMEOUT"`
	SSLMode         string `json:"sslmode" env:"TENANTFORGE_SSLMODE" env-default:"prefer"`
	ApplicationName string `json:"application_name" env:"TENANTFORGE_APPLICATION_NAME" env-default:"tenantforge"`
}

// ServerConfig holds listen addresses for `serve`.
type ServerConfig struct {
	GRPCAddr string `json:"grpc_addr" env:"TENANTFORGE_GRPC_ADDR" env-default:"127.0.0.1:7070"`
	// HTTPAddr enables the HTTP API when set.
	HTTPAddr string `json:"http_addr" env:"TENANTFORGE_HTTP_ADDR"`
}

// Timeout parses ConnectTimeout.
func (e ExecConfig) Timeout() (time.Duration, error) {
	if e.ConnectTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(e.ConnectTimeout)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "invalid exec.connect_timeout")
	}
	if d < 0 {
		return 0, pkgerrors.Errorf("invalid exec.connect_timeout: %s is negative", e.ConnectTimeout)
	}
	return d, nil
}

// DefaultPath returns the path to config.json in the XDG config dir.
func DefaultPath() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// StorePath returns the configured project store path or the default one.
func (c Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := xdg.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "projects.json"), nil
}

// Load reads configuration from path, or from DefaultPath when path is empty.
// A missing file yields defaults plus environment overrides.
func Load(path string) (Config, error) {
	var c Config
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return c, err
		}
		path = p
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&c); err != nil {
			return c, pkgerrors.Wrap(err, "failed to read environment")
		}
		return c, nil
	}
	if err := cleanenv.ReadConfig(path, &c); err != nil {
		return c, pkgerrors.Wrapf(err, "failed to read config %s", path)
	}
	return c, nil
}

// Save writes configuration to path with 0600 permissions.
func Save(path string, c Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, "failed to encode config")
	}
	return os.WriteFile(path, b, 0o600)
}
