package logger

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base   atomic.Pointer[zap.Logger]
	sugar  atomic.Pointer[zap.SugaredLogger]
	initMu sync.Mutex
)

// Init builds the process logger. env "dev" selects the console encoder;
// anything else logs JSON with ISO8601 "ts". Every entry carries service and env.
// An unparsable level falls back to info.
func Init(service, env, level string) {
	initMu.Lock()
	defer initMu.Unlock()
	install(build(service, env, level))
	S().Infow("logger initialized", "level", level)
}

func build(service, env, level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if env == "dev" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.Fields(zap.String("service", service), zap.String("env", env)))
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return l
}

func install(l *zap.Logger) {
	base.Store(l)
	sugar.Store(l.Sugar())
}

func ensure() {
	if base.Load() != nil {
		return
	}
	initMu.Lock()
	defer initMu.Unlock()
	if base.Load() == nil {
		install(build("unknown", "dev", "info"))
	}
}

// L returns the process logger, building a dev logger on first use if Init
// has not run.
func L() *zap.Logger {
	ensure()
	return base.Load()
}

// S returns the sugared process logger.
func S() *zap.SugaredLogger {
	ensure()
	return sugar.Load()
}

// Named returns a child logger scoped to a component, e.g. "orderbook".
func Named(component string) *zap.Logger {
	return L().Named(component)
}

// Sync flushes buffered entries. Defer it in main.
func Sync() {
	if l := base.Load(); l != nil {
		_ = l.Sync()
	}
}
