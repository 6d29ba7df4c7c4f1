package logio

import (
	"sync"

	"go.uber.org/zap"
)

// Logger is a leveled logging facility backed by zap's sugared logger. It
// additionally tracks whether an error-level message has ever been logged,
// so a caller can decide an os.Exit code without threading that decision
// through every call site.
type Logger struct {
	mu       sync.Mutex
	sugar    *zap.SugaredLogger
	exitCode int
}

// New builds a Logger around a development zap logger (human-readable,
// color-free, safe for a terminal REPL). Falls back to a no-op core if zap
// itself cannot construct one, which only happens under misconfiguration
// that can't occur with NewDevelopment's fixed config.
func New() *Logger {
	zl, err := zap.NewDevelopment()
	if err != nil {
		zl = zap.NewNop()
	}
	return &Logger{sugar: zl.Sugar()}
}

// NewNop builds a Logger that discards everything, for tests that want a
// non-nil logger without terminal noise.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// Leveledf returns a typical printf-style formatting function that logs
// messages with the given level.
func (log *Logger) Leveledf(level string) func(mess string, args ...interface{}) {
	return func(mess string, args ...interface{}) { log.Printf(level, mess, args...) }
}

// ErrorIf logs any non-nil error at error level.
func (log *Logger) ErrorIf(err error) {
	if err == nil {
		return
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	log.sugar.Errorf("%+v", err)
	log.exitCode = 2
}

// Errorf is like Printf("ERROR", ...) but additionally retains state so that
// ExitCode() will return non-zero.
func (log *Logger) Errorf(mess string, args ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.sugar.Errorf(mess, args...)
	log.exitCode = 1
}

// Printf logs mess at the named level ("DEBUG", "WARN", "ERROR", or
// anything else for info).
func (log *Logger) Printf(level, mess string, args ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	switch level {
	case "ERROR":
		log.sugar.Errorf(mess, args...)
	case "WARN":
		log.sugar.Warnf(mess, args...)
	case "DEBUG":
		log.sugar.Debugf(mess, args...)
	default:
		log.sugar.Infof(mess, args...)
	}
}

// ExitCode returns a code suitable for os.Exit: non-zero if any error-level
// message was ever logged.
func (log *Logger) ExitCode() int {
	log.mu.Lock()
	defer log.mu.Unlock()
	return log.exitCode
}

// Sync flushes any buffered log entries, per zap's own Sync contract.
func (log *Logger) Sync() error {
	log.mu.Lock()
	defer log.mu.Unlock()
	return log.sugar.Sync()
}
