// Package logger wraps a process-wide logrus logger for diagnostic output.
// Operator-facing progress is printed by the commands themselves.
package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Fields is a set of structured key/value pairs attached to a log entry.
type Fields = logrus.Fields

var log = logrus.New()

// Init initializes the logger with the specified level
func Init(level string) error {
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	return nil
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Debug logs a debug message
func Debug(msg string, fields ...Fields) {
	entry(fields).Debug(msg)
}

// Info logs an info message
func Info(msg string, fields ...Fields) {
	entry(fields).Info(msg)
}

// Warn logs a warning message
func Warn(msg string, err error, fields ...Fields) {
	e := entry(fields)
	if err != nil {
		e = e.WithError(err)
	}
	e.Warn(msg)
}

// Error logs an error message
func Error(msg string, err error, fields ...Fields) {
	entry(fields).WithError(err).Error(msg)
}

func entry(fields []Fields) *logrus.Entry {
	e := logrus.NewEntry(log)
	for _, f := range fields {
		e = e.WithFields(f)
	}
	return e
}
