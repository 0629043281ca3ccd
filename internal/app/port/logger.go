package port

// Logger defines the common structured logging interface used across the
// application and infrastructure layers. Args are alternating key/value pairs.
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
