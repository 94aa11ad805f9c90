package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the output format and verbosity of the root logger.
type Config struct {
	Level string `toml:",omitempty"` // trace, debug, info, warn, error
	JSON  bool   `toml:",omitempty"`
}

// DefaultConfig logs human-readable records at info level.
var DefaultConfig = Config{
	Level: "info",
}

// ParseLevel maps a level name onto its zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error", "crit":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// Build constructs a logger writing to w. Terminal outputs get coloured
// levels unless JSON output was requested.
func Build(w io.Writer, cfg Config) (Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var enc zapcore.Encoder
	if cfg.JSON {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("01-02|15:04:05.000")
		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
			w = colorable.NewColorable(f)
		} else {
			ec.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		enc = zapcore.NewConsoleEncoder(ec)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(lvl))
	return NewZap(zap.New(core)), nil
}

// Setup builds a logger for w and installs it as root.
func Setup(w io.Writer, cfg Config) error {
	l, err := Build(w, cfg)
	if err != nil {
		return err
	}
	SetRoot(l)
	return nil
}
