// Package config loads knolreview settings from defaults, an optional YAML
// file, KNOLREVIEW_* environment variables and command-line flags, in that
// order of precedence (flags win).
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/knolreview/internal/llm"
	"github.com/conorfennell/knolreview/internal/workpool"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "KNOLREVIEW_"

// Config is the full application configuration.
type Config struct {
	DB         DBConfig         `koanf:"db"`
	Owner      string           `koanf:"owner" validate:"required"`
	LLM        llm.Config       `koanf:"llm"`
	Generation GenerationConfig `koanf:"generation"`
	Review     ReviewConfig     `koanf:"review"`
	Log        LogConfig        `koanf:"log"`
	ReposDir   string           `koanf:"repos_dir" validate:"required"`
}

type DBConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// GenerationConfig bounds the correction job.
type GenerationConfig struct {
	Timeout time.Duration   `koanf:"timeout" validate:"min=1ms"`
	Pool    workpool.Config `koanf:"pool"`
}

type ReviewConfig struct {
	// SentenceLimit is the default number of sentences per review session.
	SentenceLimit int `koanf:"sentence_limit" validate:"min=1,max=50"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB:    DBConfig{Path: "knolreview.db"},
		Owner: "system",
		LLM:   llm.DefaultConfig(),
		Generation: GenerationConfig{
			Timeout: 60 * time.Second,
			Pool:    workpool.DefaultConfig(),
		},
		Review:   ReviewConfig{SentenceLimit: 10},
		Log:      LogConfig{Level: "info", Format: "text"},
		ReposDir: "repos",
	}
}

// sections are the top-level keys whose environment variables carry a
// nested key after the first underscore, e.g. KNOLREVIEW_LLM_API_KEY.
var sections = []string{"db", "llm", "generation_pool", "generation", "review", "log"}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, sec := range sections {
		if rest, ok := strings.CutPrefix(s, sec+"_"); ok {
			return strings.ReplaceAll(sec, "_", ".") + "." + rest
		}
	}
	return s
}

// RegisterFlags adds the overridable settings to fs. Flag names match the
// configuration keys.
func RegisterFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.String("config", "", "path to a YAML configuration file")
	fs.String("db.path", def.DB.Path, "path to the SQLite database file")
	fs.String("owner", def.Owner, "user id used when a request names no user")
	fs.String("repos_dir", def.ReposDir, "directory for git deck checkouts")
	fs.String("llm.base_url", def.LLM.BaseURL, "OpenAI-compatible API base URL")
	fs.String("llm.model", def.LLM.Model, "chat model name")
	fs.Duration("generation.timeout", def.Generation.Timeout, "how long to wait for the background correction job")
	fs.String("log.level", def.Log.Level, "log level: debug, info, warn or error")
	fs.String("log.format", def.Log.Format, "log format: text or json")
}

// Load builds the configuration. fs may be nil; when it has a "config" flag
// set, that file is read, otherwise KNOLREVIEW_CONFIG is consulted.
func Load(fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	path := os.Getenv(EnvPrefix + "CONFIG")
	if fs != nil {
		if p, err := fs.GetString("config"); err == nil && p != "" {
			path = p
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	if fs != nil {
		// Unchanged flags only fill keys nothing else has set.
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}
	k.Delete("config")

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks every field constraint and reports all failures at once.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation failed: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("Field: %s, Tag: %s, Param: %s", fe.Namespace(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}

// SlogLevel converts the configured log level.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger described by c.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
