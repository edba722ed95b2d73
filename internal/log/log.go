package log

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	logger     *zap.SugaredLogger
	loggerOnce sync.Once
	level      = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// initLogger builds the global logger: console encoding on stderr with
// ISO8601 timestamps.
func initLogger() {
	loggerOnce.Do(func() {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(zapcore.AddSync(os.Stderr)),
			level,
		)
		logger = zap.New(core).Sugar()
	})
}

// useCore swaps the underlying core. Tests use it to observe output.
func useCore(core zapcore.Core) {
	initLogger()
	logger = zap.New(core).Sugar()
}

// ParseLevel maps a config string ("debug", "info", ...) to a Level.
// Unknown values map to LevelInfo.
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(l Level) {
	initLogger()
	switch l {
	case LevelDebug:
		level.SetLevel(zapcore.DebugLevel)
	case LevelWarn:
		level.SetLevel(zapcore.WarnLevel)
	case LevelError:
		level.SetLevel(zapcore.ErrorLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

func Debug(msg string, kv ...any) {
	initLogger()
	logger.Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	initLogger()
	logger.Infow(msg, kv...)
}

func Warn(msg string, kv ...any) {
	initLogger()
	logger.Warnw(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	initLogger()
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	logger.Errorw(msg, extended...)
}

// Sync flushes buffered entries; call before exit.
func Sync() {
	initLogger()
	_ = logger.Sync()
}
