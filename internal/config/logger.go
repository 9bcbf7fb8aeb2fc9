package config

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// NewLogger configures the standard logrus logger from Viper settings.
// Reads "logging.level" (debug, info, warn, error; default "info"),
// "logging.format" (text, json; default "text") and "logging.file"
// (empty = stderr). The returned closer releases the log file.
func NewLogger(v *viper.Viper) (*logrus.Logger, io.Closer, error) {
	level := v.GetString("logging.level")
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var formatter logrus.Formatter
	switch format := v.GetString("logging.format"); format {
	case "text", "":
		formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}
	case "json":
		formatter = &logrus.JSONFormatter{}
	default:
		return nil, nil, fmt.Errorf("invalid log format %q: must be \"text\" or \"json\"", format)
	}

	var out io.WriteCloser = nopCloser{os.Stderr}
	if path := v.GetString("logging.file"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
	}

	logger := logrus.StandardLogger()
	logger.SetLevel(lvl)
	logger.SetFormatter(formatter)
	logger.SetOutput(out)

	return logger, out, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
