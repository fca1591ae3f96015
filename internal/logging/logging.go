package logging

// Logger is a deliberately small, framework-agnostic logging interface.
// Packages depend on this interface; the zerolog backend lives in zerolog.go.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, fields ...Field)

	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning.
	Warn(msg string, fields ...Field)

	// Error logs an error.
	Error(msg string, fields ...Field)

	// With returns a child logger with persistent fields.
	With(fields ...Field) Logger
}

// Field is a simple key/value pair for structured logging fields.
type Field struct {
	Key   string
	Value any
}

// Component is shorthand for the field every subsystem logger carries.
func Component(name string) Field {
	return Field{Key: "component", Value: name}
}

// Err wraps an error as a field. A nil error yields an empty string value.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err.Error()}
}
