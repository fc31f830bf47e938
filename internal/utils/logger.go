// Package utils provides common utilities shared across packages
package utils

// Logger defines a common logging interface used throughout the application
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// NoopLogger is a logger implementation that discards everything
type NoopLogger struct{}

func (l NoopLogger) Debug(format string, args ...any) {}
func (l NoopLogger) Info(format string, args ...any)  {}
func (l NoopLogger) Warn(format string, args ...any)  {}
func (l NoopLogger) Error(format string, args ...any) {}
