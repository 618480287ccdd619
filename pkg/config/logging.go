package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds a slog.Logger writing to w in the configured format.
func (c LoggingConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// SetupLogging installs the configured logger as the slog default.
func SetupLogging(c LoggingConfig, w io.Writer) error {
	logger, err := c.NewLogger(w)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
