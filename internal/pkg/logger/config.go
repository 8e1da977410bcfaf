package logger

import (
	"fmt"
	"log/slog"
	"strings"

	. "github.com/go-ozzo/ozzo-validation"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

type Config struct {
	Level     string
	Format    string
	AddSource bool
}

func (c *Config) Validate() error {
	return ValidateStruct(c,
		Field(&c.Level, Required, By(knownLevel)),
		Field(&c.Format, Required, In(FormatJSON, FormatText)),
	)
}

// SlogLevel maps Level case-insensitively; unknown levels fall back to info.
func (c *Config) SlogLevel() slog.Level {
	if level, ok := levels[strings.ToLower(c.Level)]; ok {
		return level
	}
	return slog.LevelInfo
}

func knownLevel(value interface{}) error {
	name, _ := value.(string)
	if _, ok := levels[strings.ToLower(name)]; !ok {
		return fmt.Errorf("must be one of debug, info, warn, error")
	}
	return nil
}
