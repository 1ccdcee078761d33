// Package config loads settings from defaults, a YAML file, a .env file
// and the environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix      = "EXPIRY_TRACKER_"
	defaultEnvFile = ".env"
	configFile     = "config.yaml"
)

type Config struct {
	DB struct {
		Path string `koanf:"path"`
	} `koanf:"db"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`

	Notify struct {
		Interval time.Duration `koanf:"interval"`
		ClickURL string        `koanf:"clickurl"`
		Console  bool          `koanf:"console"`
	} `koanf:"notify"`

	Telegram struct {
		Token     string  `koanf:"token"`
		ChatID    int64   `koanf:"chatid"`
		RateLimit float64 `koanf:"ratelimit"`
	} `koanf:"telegram"`

	OCR struct {
		Provider    string `koanf:"provider"`
		Model       string `koanf:"model"`
		URL         string `koanf:"url"`
		APIKey      string `koanf:"apikey"`
		Concurrency int    `koanf:"concurrency"`
	} `koanf:"ocr"`

	Server struct {
		Addr    string `koanf:"addr"`
		Timeout struct {
			Read  time.Duration `koanf:"read"`
			Write time.Duration `koanf:"write"`
			Idle  time.Duration `koanf:"idle"`
		} `koanf:"timeout"`
	} `koanf:"server"`
}

func (c Config) String() string {
	return fmt.Sprintf("db.path=%s, log.level=%s, log.format=%s, notify.interval=%v, notify.clickurl=%s, notify.console=%v, telegram.token=%s, telegram.chatid=%d, ocr.provider=%q, ocr.apikey=%s, server.addr=%s",
		c.DB.Path,
		c.Log.Level,
		c.Log.Format,
		c.Notify.Interval,
		c.Notify.ClickURL,
		c.Notify.Console,
		mask(c.Telegram.Token),
		c.Telegram.ChatID,
		c.OCR.Provider,
		mask(c.OCR.APIKey),
		c.Server.Addr)
}

func mask(secret string) string {
	if secret == "" {
		return "<not configured>"
	}
	return "****"
}

// TelegramEnabled reports whether the Telegram channel is configured.
func (c Config) TelegramEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.ChatID != 0
}

// DefaultDBPath is ~/.expiry-tracker/products.db.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".expiry-tracker", "products.db")
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"db.path":              DefaultDBPath(),
		"log.level":            "info",
		"log.format":           "text",
		"notify.interval":      "6h",
		"notify.clickurl":      "/products",
		"notify.console":       true,
		"telegram.ratelimit":   1.0,
		"ocr.concurrency":      2,
		"server.addr":          "127.0.0.1:8080",
		"server.timeout.read":  "10s",
		"server.timeout.write": "30s",
		"server.timeout.idle":  "60s",
	}
}

// Load reads the configuration. path is the YAML file; empty means
// config.yaml in the working directory, and a missing file is fine.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	// 2. YAML file
	explicit := path != ""
	if !explicit {
		path = configFile
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading YAML config %s: %w", path, err)
		}
	}

	// 3. .env file
	if envFileMap, err := godotenv.Read(defaultEnvFile); err == nil {
		envMap := make(map[string]interface{})
		for key, value := range envFileMap {
			if !strings.HasPrefix(strings.ToUpper(key), envPrefix) {
				continue
			}
			envMap[keyTransformer(key)] = value
		}
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			slog.Warn("error loading .env config", "err", err)
		}
	} else if !os.IsNotExist(err) {
		slog.Warn("error reading .env file", "err", err)
	}

	// 4. Environment, the highest priority
	if err := k.Load(env.Provider(envPrefix, ".", keyTransformer), nil); err != nil {
		slog.Warn("error loading env vars", "err", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.DB.Path == "" {
		return fmt.Errorf("db.path is not configured")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}
	if c.Notify.Interval <= 0 {
		return fmt.Errorf("invalid notify interval: %v", c.Notify.Interval)
	}
	if c.Telegram.RateLimit < 0 {
		return fmt.Errorf("invalid telegram rate limit: %v", c.Telegram.RateLimit)
	}
	switch c.OCR.Provider {
	case "", "gemini", "ollama", "openai":
	default:
		return fmt.Errorf("unknown ocr provider: %q", c.OCR.Provider)
	}
	if c.OCR.Provider == "gemini" && c.OCR.APIKey == "" {
		return fmt.Errorf("ocr.apikey is required for gemini")
	}
	if c.OCR.Concurrency <= 0 {
		return fmt.Errorf("invalid ocr concurrency: %d", c.OCR.Concurrency)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is not configured")
	}
	if c.Server.Timeout.Read <= 0 || c.Server.Timeout.Write <= 0 || c.Server.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid server timeouts: read=%v write=%v idle=%v",
			c.Server.Timeout.Read, c.Server.Timeout.Write, c.Server.Timeout.Idle)
	}
	return nil
}

// keyTransformer maps EXPIRY_TRACKER_NOTIFY_INTERVAL to notify.interval.
func keyTransformer(key string) string {
	key = strings.ToLower(key)
	key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
	return strings.ReplaceAll(key, "_", ".")
}
