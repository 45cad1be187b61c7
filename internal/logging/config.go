package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "ENSEMBLE_LOG_LEVEL"
	EnvLogTimestamp = "ENSEMBLE_LOG_TIMESTAMP"
	EnvLogNoColor   = "ENSEMBLE_LOG_NOCOLOR"
	EnvLogJSON      = "ENSEMBLE_LOG_JSON"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config is the resolved logger shape before it is installed as log.Logger.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	JSON      bool
}

type envOverrides struct {
	Level     string `env:"ENSEMBLE_LOG_LEVEL"`
	Timestamp *bool  `env:"ENSEMBLE_LOG_TIMESTAMP"`
	NoColor   *bool  `env:"ENSEMBLE_LOG_NOCOLOR"`
	JSON      *bool  `env:"ENSEMBLE_LOG_JSON"`
}

var configureOnce sync.Once

func ConfigureRuntime() {
	Configure(ProfileRuntime)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

// Configure installs the process logger once; later calls are no-ops.
func Configure(profile Profile) {
	configureOnce.Do(func() {
		cfg := DefaultConfig(profile)
		envErr := applyEnvOverrides(&cfg)
		log.Logger = New(cfg, os.Stderr)
		if envErr != nil {
			log.Warn().Err(envErr).Msg("logging env overrides ignored")
		}
	})
}

func DefaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{Level: zerolog.DebugLevel, Timestamp: false}
	default:
		return Config{Level: zerolog.InfoLevel, Timestamp: true}
	}
}

// New builds a logger writing to out. Colour is dropped for non-terminals.
func New(cfg Config, out *os.File) zerolog.Logger {
	var w io.Writer = out
	if !cfg.JSON {
		noColor := cfg.NoColor || !isatty.IsTerminal(out.Fd())
		var console io.Writer = out
		if !noColor {
			console = colorable.NewColorable(out)
		}
		w = zerolog.ConsoleWriter{
			Out:        console,
			NoColor:    noColor,
			TimeFormat: time.RFC3339,
		}
	}
	return NewWithWriter(cfg, w)
}

// NewWithWriter builds a logger over an arbitrary writer without console formatting.
func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	ctx := zerolog.New(w).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func applyEnvOverrides(cfg *Config) error {
	var raw envOverrides
	if err := env.Parse(&raw); err != nil {
		return err
	}
	if lvl, ok := parseLevel(raw.Level); ok {
		cfg.Level = lvl
	}
	if raw.Timestamp != nil {
		cfg.Timestamp = *raw.Timestamp
	}
	if raw.NoColor != nil {
		cfg.NoColor = *raw.NoColor
	}
	if raw.JSON != nil {
		cfg.JSON = *raw.JSON
	}
	return nil
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
