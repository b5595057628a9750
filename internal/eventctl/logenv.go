package eventctl

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"eventcore/internal/config"
)

// EnvConfig names the config file when --config is not given.
const EnvConfig = "EVENTCORE_CONFIG"

// newLogger builds the process logger from cfg. Output goes to stderr unless
// a log file is configured, in which case it is rotated by lumberjack and the
// returned closer must be closed on exit.
func newLogger(cfg config.Config, stderr io.Writer) (zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	var (
		w      io.Writer = stderr
		closer io.Closer
	)
	if cfg.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: 3,
		}
		w, closer = lj, lj
	}
	if cfg.LogFormat == "console" && cfg.LogFile == "" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), closer, nil
}

// Env helpers
func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
