// Package config loads git-clone-cache settings.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. Command-line flags are applied last by the caller,
// before Finalize expands paths and validates the result.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/dilijev/git-clone-cache/errors"
)

// Environment variables read by Load.
const (
	EnvConfigFile = "GIT_CLONE_CACHE_CONFIG"
	EnvCacheDir   = "GIT_CLONE_CACHE_DIR"
	EnvLogLevel   = "GIT_CLONE_CACHE_LOG_LEVEL"
)

const (
	// DefaultCacheDir is used when nothing else names a cache root.
	DefaultCacheDir = "~/.git-clone-cache"

	// LogFileName is the log file created in the cache root.
	LogFileName = "git-clone-cache.log"
)

// Backend names.
const (
	HasherBuiltin = "builtin"
	HasherCommand = "command"

	IndexJSON = "json"
	IndexJQ   = "jq"

	RemoteGoGit = "gogit"
	RemoteCLI   = "cli"
)

// Config holds every setting of the tool.
type Config struct {
	CacheDir string `yaml:"cacheDir"`
	// LogFile defaults to <CacheDir>/git-clone-cache.log.
	LogFile  string `yaml:"logFile"`
	LogLevel string `yaml:"logLevel"`
	NoLog    bool   `yaml:"noLog"`

	Hasher        string `yaml:"hasher"`
	IndexBackend  string `yaml:"indexBackend"`
	RemoteBackend string `yaml:"remoteBackend"`
	GitBinary     string `yaml:"gitBinary"`
	JQBinary      string `yaml:"jqBinary"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		CacheDir:      DefaultCacheDir,
		LogLevel:      "info",
		Hasher:        HasherBuiltin,
		IndexBackend:  IndexJSON,
		RemoteBackend: RemoteGoGit,
		GitBinary:     "git",
		JQBinary:      "jq",
	}
}

// Load returns the defaults overlaid with the YAML file at path and the
// environment. An empty path falls back to $GIT_CLONE_CACHE_CONFIG; when
// neither is set no file is read. getenv is usually os.Getenv.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if dir := getenv(EnvCacheDir); dir != "" {
		cfg.CacheDir = dir
	}
	if level := getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return errors.Wrapf(err, errors.CodeInvalidConfig, "cannot expand config path %q", path)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeInvalidConfig, "unable to read configuration file",
			map[string]interface{}{"path": expanded})
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return errors.WrapWithContext(err, errors.CodeInvalidConfig, "unable to parse configuration file",
			map[string]interface{}{"path": expanded})
	}
	return nil
}

// Finalize expands "~" in paths, fills in the log file location and
// validates the result.
func (c *Config) Finalize() error {
	dir, err := homedir.Expand(c.CacheDir)
	if err != nil {
		return errors.Wrapf(err, errors.CodeInvalidConfig, "cannot expand cache directory %q", c.CacheDir)
	}
	if dir != "" {
		if dir, err = filepath.Abs(dir); err != nil {
			return errors.Wrapf(err, errors.CodeInvalidConfig, "cannot resolve cache directory %q", c.CacheDir)
		}
	}
	c.CacheDir = dir

	if c.LogFile == "" && c.CacheDir != "" {
		c.LogFile = filepath.Join(c.CacheDir, LogFileName)
	}
	logFile, err := homedir.Expand(c.LogFile)
	if err != nil {
		return errors.Wrapf(err, errors.CodeInvalidConfig, "cannot expand log file %q", c.LogFile)
	}
	if logFile != "" {
		if logFile, err = filepath.Abs(logFile); err != nil {
			return errors.Wrapf(err, errors.CodeInvalidConfig, "cannot resolve log file %q", c.LogFile)
		}
	}
	c.LogFile = logFile

	c.Hasher = strings.ToLower(c.Hasher)
	c.IndexBackend = strings.ToLower(c.IndexBackend)
	c.RemoteBackend = strings.ToLower(c.RemoteBackend)

	return c.Validate()
}

// Validate rejects empty paths and unknown backend names.
func (c *Config) Validate() error {
	if c.CacheDir == "" {
		return errors.New(errors.CodeInvalidConfig, "cache directory must not be empty")
	}

	checks := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"hasher", c.Hasher, []string{HasherBuiltin, HasherCommand}},
		{"index backend", c.IndexBackend, []string{IndexJSON, IndexJQ}},
		{"remote backend", c.RemoteBackend, []string{RemoteGoGit, RemoteCLI}},
		{"log level", strings.ToLower(c.LogLevel), []string{"debug", "info", "warn", "warning", "error"}},
	}
	for _, check := range checks {
		if !slices.Contains(check.allowed, check.value) {
			return errors.WithContext(errors.Newf(errors.CodeInvalidConfig, "unknown %s %q (want one of %s)",
				check.name, check.value, strings.Join(check.allowed, ", ")), "field", check.name)
		}
	}

	if c.RemoteBackend == RemoteCLI && c.GitBinary == "" {
		return errors.New(errors.CodeInvalidConfig, "git binary must be set for the cli remote backend")
	}
	if c.IndexBackend == IndexJQ && c.JQBinary == "" {
		return errors.New(errors.CodeInvalidConfig, "jq binary must be set for the jq index backend")
	}
	return nil
}
