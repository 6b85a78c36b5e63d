package env

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	str2duration "github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL     = "https://api.lumen-ai.dev"
	DefaultChatModel   = "lumen-4"
	DefaultVisionModel = "lumen-4v"
	DefaultTimeout     = 60 * time.Second
	DefaultSessionTTL  = 55 * time.Minute
)

// Config holds the resolved CLI configuration. Resolution order is
// flag > environment variable > config file > default; flags are applied by
// the command layer after Load.
type Config struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	VisionModel string
	Timeout     time.Duration
	SessionTTL  time.Duration
	CacheDir    string
	LogLevel    string
	LogFormat   string
	UseCurl     bool
}

// fileConfig is the YAML shape of the config file. Durations are strings so
// users can write "90s" or "2m".
type fileConfig struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	ChatModel   string `yaml:"chat_model"`
	VisionModel string `yaml:"vision_model"`
	Timeout     string `yaml:"timeout"`
	SessionTTL  string `yaml:"session_ttl"`
	CacheDir    string `yaml:"cache_dir"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	UseCurl     bool   `yaml:"use_curl"`
}

// ConfigDir returns the directory holding the config file and env file.
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "lumen")
}

// CacheDir returns the default cache directory for sessions and discovery data.
func CacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "lumen")
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func defaults() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		ChatModel:   DefaultChatModel,
		VisionModel: DefaultVisionModel,
		Timeout:     DefaultTimeout,
		SessionTTL:  DefaultSessionTTL,
		CacheDir:    CacheDir(),
		LogLevel:    "info",
		LogFormat:   "console",
	}
}

// Load reads the config file at path (missing file is fine), layers process
// environment variables on top, and returns the resolved Config.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path == "" {
		path = ConfigFile()
	}

	if buf, err := os.ReadFile(path); err == nil {
		var fc fileConfig
		if err := yaml.Unmarshal(buf, &fc); err != nil {
			return cfg, errors.Wrapf(err, "parsing config file %s", path)
		}
		applyFileConfig(&cfg, fc)
	} else if !os.IsNotExist(err) {
		return cfg, errors.Wrapf(err, "reading config file %s", path)
	}

	// Optional env file next to the config file.
	if err := ApplyEnvFile(filepath.Join(ConfigDir(), "env")); err != nil {
		return cfg, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.APIKey != "" {
		cfg.APIKey = fc.APIKey
	}
	if fc.BaseURL != "" {
		cfg.BaseURL = fc.BaseURL
	}
	if fc.ChatModel != "" {
		cfg.ChatModel = fc.ChatModel
	}
	if fc.VisionModel != "" {
		cfg.VisionModel = fc.VisionModel
	}
	if fc.CacheDir != "" {
		cfg.CacheDir = fc.CacheDir
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
	if fc.UseCurl {
		cfg.UseCurl = true
	}
	if d, err := str2duration.ParseDuration(fc.Timeout); err == nil && fc.Timeout != "" {
		cfg.Timeout = d
	}
	if d, err := str2duration.ParseDuration(fc.SessionTTL); err == nil && fc.SessionTTL != "" {
		cfg.SessionTTL = d
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LUMEN_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("LUMEN_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("LUMEN_CHAT_MODEL"); v != "" {
		cfg.ChatModel = v
	}
	if v := os.Getenv("LUMEN_VISION_MODEL"); v != "" {
		cfg.VisionModel = v
	}
	if v := os.Getenv("LUMEN_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("LUMEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LUMEN_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("LUMEN_USE_CURL"); v == "1" || v == "true" {
		cfg.UseCurl = true
	}
	if v := os.Getenv("LUMEN_TIMEOUT"); v != "" {
		if d, err := str2duration.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("LUMEN_SESSION_TTL"); v != "" {
		if d, err := str2duration.ParseDuration(v); err == nil {
			cfg.SessionTTL = d
		}
	}
}

// Save writes the config file, creating the config directory if needed.
// Only explicitly-set values should be persisted; zero values are omitted.
func Save(path string, cfg Config) error {
	if path == "" {
		path = ConfigFile()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	fc := fileConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		ChatModel:   cfg.ChatModel,
		VisionModel: cfg.VisionModel,
		CacheDir:    cfg.CacheDir,
		LogLevel:    cfg.LogLevel,
		LogFormat:   cfg.LogFormat,
		UseCurl:     cfg.UseCurl,
	}
	if cfg.Timeout > 0 && cfg.Timeout != DefaultTimeout {
		fc.Timeout = cfg.Timeout.String()
	}
	if cfg.SessionTTL > 0 && cfg.SessionTTL != DefaultSessionTTL {
		fc.SessionTTL = cfg.SessionTTL.String()
	}
	buf, err := yaml.Marshal(fc)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	return os.WriteFile(path, buf, 0o600)
}
