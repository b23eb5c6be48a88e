package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus with leveled helpers used across the client.
type Logger struct {
	logger *logrus.Logger
}

// New builds a logger writing to stdout. Unknown levels fall back to info.
func New(level string, jsonFormat bool) *Logger {
	l := logrus.New()
	l.Out = os.Stdout

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	if jsonFormat {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			PadLevelText:  true,
		})
	}

	return &Logger{logger: l}
}

// Debug logs a debug-level message.
func (l *Logger) Debug(msg string, fields ...logrus.Fields) {
	l.log(logrus.DebugLevel, msg, fields...)
}

// Info logs an info-level message.
func (l *Logger) Info(msg string, fields ...logrus.Fields) {
	l.log(logrus.InfoLevel, msg, fields...)
}

// Warn logs a warn-level message.
func (l *Logger) Warn(msg string, fields ...logrus.Fields) {
	l.log(logrus.WarnLevel, msg, fields...)
}

// Error logs an error-level message.
func (l *Logger) Error(msg string, fields ...logrus.Fields) {
	l.log(logrus.ErrorLevel, msg, fields...)
}

func (l *Logger) log(level logrus.Level, msg string, fields ...logrus.Fields) {
	entry := logrus.NewEntry(l.logger)
	for _, f := range fields {
		entry = entry.WithFields(f)
	}
	entry.Log(level, msg)
}
