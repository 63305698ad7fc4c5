// Package logging configures the process-wide logrus logger and hands
// out component-scoped entries.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logger. Level resolution order is the
// explicit argument, then SITESHIP_LOG_LEVEL, then info.
func Setup(level, format string) {
	if level == "" {
		level = os.Getenv("SITESHIP_LOG_LEVEL")
	}

	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)

	switch format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stderr)
}

// WithComponent returns an entry carrying a component field.
func WithComponent(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
