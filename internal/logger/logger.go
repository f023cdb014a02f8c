// Package logger configures the application-wide logrus logger.
package logger

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a logger: human-readable text in dev, JSON otherwise.
func New(dev bool) *logrus.Logger {
	l := logrus.New()
	if dev {
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.DateTime,
			FullTimestamp:   true,
		})
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
