package utils

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

type LoggerType string

const (
	FIXSESSION LoggerType = "FIXSESSION"
)

var Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", string(FIXSESSION)).Logger()

// InitLogger sets the global level and switches to console output when pretty is set.
func InitLogger(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if pretty {
		out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		Logger = zerolog.New(out).With().Timestamp().Str("service", string(FIXSESSION)).Logger()
	}

	if err != nil {
		Logger.Warn().Str("level", level).Msg("unknown log level, using info")
	}
}
