// Package config resolves the client's settings from defaults, an
// optional YAML file, a .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// APIURL is the notes service base path, e.g. http://localhost:8080/api
	APIURL string `yaml:"api_url"`
	// Host is the interface the web UI listens on. The UI acts with the
	// signed-in user's credentials, so it stays on loopback unless widened.
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	// Markdown renders note content as markdown instead of plain text.
	Markdown bool `yaml:"markdown"`
	// MCP exposes the notes tools at /mcp.
	MCP bool `yaml:"mcp"`
}

func Default() Config {
	return Config{
		APIURL:   "http://localhost:8080/api",
		Host:     "127.0.0.1",
		Port:     "7521",
		LogLevel: "info",
		MCP:      true,
	}
}

// Load builds the configuration. path is an optional YAML file; envFile is
// an optional dotenv file whose variables never override ones already set
// in the process environment. The result is not validated, so callers can
// apply their own overrides before calling Validate.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("NOTES_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("NOTES_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	for key, dst := range map[string]*bool{"NOTES_MARKDOWN": &c.Markdown, "NOTES_MCP": &c.MCP} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = b
	}
	return nil
}

// Validate checks that the settings are usable
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api url %q: want http(s)://host/path", c.APIURL)
	}

	if c.Host == "" {
		return errors.New("listen host is empty")
	}

	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Addr is the listen address for the web UI
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Level maps LogLevel to a slog level
func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.LogLevel)
}
