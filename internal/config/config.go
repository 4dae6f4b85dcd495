package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	DefaultNarrationURL    = "https://fzp9wkiip9.execute-api.ap-south-1.amazonaws.com/v1/narration"
	DefaultIllustrationURL = "https://fzp9wkiip9.execute-api.ap-south-1.amazonaws.com/v1/illustration"
	DefaultVoice           = "en-US-Chirp3-HD-Charon"
)

type Config struct {
	API       API       `mapstructure:"api"`
	Story     Story     `mapstructure:"story"`
	Player    Player    `mapstructure:"player"`
	Narration Narration `mapstructure:"narration"`
	Log       Log       `mapstructure:"log"`
}

type API struct {
	NarrationURL    string        `mapstructure:"narration_url"`
	IllustrationURL string        `mapstructure:"illustration_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type Story struct {
	ChunkSize int `mapstructure:"chunk_size"`
}

type Player struct {
	Transition time.Duration `mapstructure:"transition"`
	Audio      string        `mapstructure:"audio"`
}

type Narration struct {
	// Provider is "remote" for the narration API or "google" for local
	// Cloud Text-to-Speech synthesis.
	Provider  string `mapstructure:"provider"`
	Voice     string `mapstructure:"voice"`
	OutputDir string `mapstructure:"output_dir"`
}

type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func SetDefaults() {
	cache := CacheDir()

	viper.SetDefault("api.narration_url", DefaultNarrationURL)
	viper.SetDefault("api.illustration_url", DefaultIllustrationURL)
	viper.SetDefault("api.timeout", 30*time.Second)
	viper.SetDefault("story.chunk_size", 2800)
	viper.SetDefault("player.transition", 300*time.Millisecond)
	viper.SetDefault("player.audio", "speaker")
	viper.SetDefault("narration.provider", "remote")
	viper.SetDefault("narration.voice", DefaultVoice)
	viper.SetDefault("narration.output_dir", filepath.Join(cache, "narration"))
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", filepath.Join(cache, "storify.log"))
}

// Load reads .env, the storify config file and STORIFY_* environment
// variables on top of the defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	SetDefaults()

	viper.SetConfigName("storify")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.storify")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("STORIFY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return decode()
}

func decode() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Story.ChunkSize <= 0 {
		return fmt.Errorf("story.chunk_size must be positive, got %d", c.Story.ChunkSize)
	}
	if c.Player.Transition < 0 {
		return fmt.Errorf("player.transition must not be negative")
	}
	switch c.Narration.Provider {
	case "remote", "google":
	default:
		return fmt.Errorf("unsupported narration provider: %s", c.Narration.Provider)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	return nil
}

// SetupLogging points logrus at the configured file. The terminal belongs to
// the player UI, so logs never go to stdout.
func SetupLogging(c Log) (io.Closer, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)

	if c.File == "" {
		logrus.SetOutput(io.Discard)
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(c.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logrus.SetOutput(f)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	return f, nil
}

// CacheDir returns the appropriate cache directory
func CacheDir() string {
	// Try to use user's cache directory
	if cacheDir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cacheDir, "storify")
	}

	// Try user's home directory
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".storify", "cache")
	}

	// Get current working directory as fallback
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, "cache")
	}

	return "cache"
}
