package log

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	mu       sync.RWMutex
	logger   *zap.SugaredLogger
	atomLvl  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	initOnce sync.Once
)

// Init (re)builds the global logger. env "production" selects the JSON
// encoder; anything else gets the console encoder with colored levels.
func Init(env string, level Level) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = atomLvl
	cfg.DisableStacktrace = true

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	mu.Lock()
	logger = l.Sugar()
	mu.Unlock()
	initOnce.Do(func() {})

	SetLevel(level)
}

func current() *zap.SugaredLogger {
	initOnce.Do(func() {
		l, err := zap.NewDevelopmentConfig().Build(zap.AddCallerSkip(1))
		if err != nil {
			l = zap.NewNop()
		}
		mu.Lock()
		logger = l.Sugar()
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLevel changes the minimum level. Unknown values are ignored.
func SetLevel(l Level) {
	switch Level(strings.ToUpper(string(l))) {
	case LevelDebug:
		atomLvl.SetLevel(zapcore.DebugLevel)
	case LevelInfo:
		atomLvl.SetLevel(zapcore.InfoLevel)
	case LevelError:
		atomLvl.SetLevel(zapcore.ErrorLevel)
	}
}

func Debug(msg string, kv ...any) {
	current().Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	current().Infow(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	current().Errorw(msg, extended...)
}

// Sync flushes buffered entries; call before exit.
func Sync() {
	_ = current().Sync()
}
