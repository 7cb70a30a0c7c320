// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config holds the application configuration. Precedence is environment
// variables, then the YAML config file, then built-in defaults.
type Config struct {
	DBPath          string
	RawReplayPath   string
	MaxDiffLines    int
	NotifyThreshold time.Duration
	DisabledTools   []string
	FeedCommand     string
}

// Default values
const (
	defaultMaxDiffLines    = 100
	defaultNotifyThreshold = 30 * time.Second
	defaultFeedCommand     = "ccusage"
)

// fileConfig mirrors the YAML config file layout.
type fileConfig struct {
	DBPath          string   `yaml:"db_path"`
	RawReplayPath   string   `yaml:"raw_replay_path"`
	MaxDiffLines    *int     `yaml:"max_diff_lines"`
	NotifyThreshold string   `yaml:"notify_threshold"`
	DisabledTools   []string `yaml:"disabled_tools"`
	FeedCommand     string   `yaml:"feed_command"`
}

// Load reads configuration from the YAML file, .env files and
// environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DBPath:          getDefaultDBPath(),
		RawReplayPath:   getDefaultRawReplayPath(),
		MaxDiffLines:    defaultMaxDiffLines,
		NotifyThreshold: defaultNotifyThreshold,
		FeedCommand:     defaultFeedCommand,
	}

	if err := cfg.applyFile(configFilePath()); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if cfg.MaxDiffLines < 1 {
		return nil, fmt.Errorf("max_diff_lines must be positive, got %d", cfg.MaxDiffLines)
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DBPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFile overlays values from the YAML config file. A missing file is
// fine; a malformed one is an error the user should see.
func (c *Config) applyFile(path string) error {
	if path == "" {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(content, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.DBPath != "" {
		c.DBPath = expandHome(fc.DBPath)
	}
	if fc.RawReplayPath != "" {
		c.RawReplayPath = expandHome(fc.RawReplayPath)
	}
	if fc.MaxDiffLines != nil {
		c.MaxDiffLines = *fc.MaxDiffLines
	}
	if fc.NotifyThreshold != "" {
		if d, err := time.ParseDuration(fc.NotifyThreshold); err == nil {
			c.NotifyThreshold = d
		}
	}
	if len(fc.DisabledTools) > 0 {
		c.DisabledTools = fc.DisabledTools
	}
	if fc.FeedCommand != "" {
		c.FeedCommand = fc.FeedCommand
	}

	return nil
}

// applyEnv overlays WINNOW_* environment variables.
func (c *Config) applyEnv() {
	c.DBPath = getEnvString("WINNOW_DB_PATH", c.DBPath)
	c.RawReplayPath = getEnvString("WINNOW_RAW_PATH", c.RawReplayPath)
	c.MaxDiffLines = getEnvInt("WINNOW_MAX_DIFF_LINES", c.MaxDiffLines)
	c.NotifyThreshold = getEnvDuration("WINNOW_NOTIFY_THRESHOLD", c.NotifyThreshold)
	c.FeedCommand = getEnvString("WINNOW_FEED_COMMAND", c.FeedCommand)

	if value := os.Getenv("WINNOW_DISABLED_TOOLS"); value != "" {
		var tools []string
		for _, tool := range strings.Split(value, ",") {
			if tool = strings.TrimSpace(tool); tool != "" {
				tools = append(tools, tool)
			}
		}
		c.DisabledTools = tools
	}
}

// configFilePath honors WINNOW_CONFIG before the default location.
func configFilePath() string {
	if path := os.Getenv("WINNOW_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "winnow", "config.yaml")
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "winnow", ".env"),
			filepath.Join(home, ".winnow", ".env"),
		)
	}

	return paths
}

// getDefaultDBPath returns the default path for the SQLite store.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "winnow.db"
	}
	return filepath.Join(home, ".config", "winnow", "winnow.db")
}

// getDefaultRawReplayPath returns where the last raw output is kept for
// `winnow raw`.
func getDefaultRawReplayPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "winnow-raw.txt"
	}
	return filepath.Join(home, ".config", "winnow", "last-raw.txt")
}

// expandHome rewrites a leading ~/ to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
