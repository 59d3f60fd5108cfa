// Package logging defines the small structured-logging surface the
// library uses for soft failures (backend fallback, plan-cache problems).
// Applications can install their own logger; the default writes leveled
// lines to stderr.
package logging

// Level represents log severity.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Fields holds structured logging fields.
type Fields map[string]any

// Logger is the interface the library expects for logging.
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)

	// WithFields returns a logger with preset fields.
	WithFields(fields Fields) Logger

	// SetLevel sets the minimum log level.
	SetLevel(level Level)
}

var globalLogger Logger = NewDefaultLogger()

// SetGlobalLogger installs the logger used by the library. Passing nil
// silences all output.
func SetGlobalLogger(logger Logger) {
	if logger == nil {
		globalLogger = &NoOpLogger{}
	} else {
		globalLogger = logger
	}
}

// GetGlobalLogger returns the current global logger.
func GetGlobalLogger() Logger {
	return globalLogger
}

// Package-level logging functions that use the global logger.

func Debug(msg string, fields ...Fields) {
	globalLogger.Debug(msg, fields...)
}

func Info(msg string, fields ...Fields) {
	globalLogger.Info(msg, fields...)
}

func Warn(msg string, fields ...Fields) {
	globalLogger.Warn(msg, fields...)
}

func Error(err error, msg string, fields ...Fields) {
	globalLogger.Error(err, msg, fields...)
}

func WithFields(fields Fields) Logger {
	return globalLogger.WithFields(fields)
}

func SetLevel(level Level) {
	globalLogger.SetLevel(level)
}

// NoOpLogger discards all log output.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(string, ...Fields)        {}
func (n *NoOpLogger) Info(string, ...Fields)         {}
func (n *NoOpLogger) Warn(string, ...Fields)         {}
func (n *NoOpLogger) Error(error, string, ...Fields) {}
func (n *NoOpLogger) WithFields(Fields) Logger       { return n }
func (n *NoOpLogger) SetLevel(Level)                 {}
