package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool   `split_words:"true" default:"false"`
	PrettyFormat bool   `split_words:"true" default:"false"`
	Service      string `split_words:"true" default:"shop-assistant"`
}

var DefaultConfig = &Config{
	Debug:        false,
	PrettyFormat: false,
	Service:      "shop-assistant",
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

// Init replaces the global zerolog logger.
func Init(opts ...Config) {
	log.Logger = New(os.Stdout, opts...)
}

// New builds a logger writing to w. Pretty output ignores w's format and renders console text.
func New(w io.Writer, opts ...Config) zerolog.Logger {
	conf := safe(opts...)

	var logger zerolog.Logger
	if conf.PrettyFormat {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(w).With().Timestamp().Logger()
	}

	if conf.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	ctx := logger.With().Caller().Stack()
	if conf.Service != "" {
		ctx = ctx.Str("service", conf.Service)
	}
	return ctx.Logger()
}
