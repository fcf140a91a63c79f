// Package logging holds the logger shared by hilex packages.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// DefaultLogger is the base logger for all hilex packages.
// Packages derive their own entries from it with a subsystem field.
var DefaultLogger = initializeDefaultLogger()

func initializeDefaultLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return logger
}

// SetLogLevel parses level and applies it to DefaultLogger.
func SetLogLevel(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}

	DefaultLogger.SetLevel(l)
	return nil
}

// SetOutput redirects DefaultLogger output, e.g. to io.Discard in tests.
func SetOutput(w io.Writer) {
	DefaultLogger.SetOutput(w)
}
