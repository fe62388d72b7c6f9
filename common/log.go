package common

import (
	"io"
	"log/slog"
)

// LogLevel is the level used by SetupLogging. It defaults to the build tag level
// (debug, release or neither) and may be raised to debug from the command line.
var LogLevel = &slog.LevelVar{}

func init() {
	LogLevel.Set(defaultLogLevel)
}

// SetupLogging installs a text handler writing to w as the default slog logger.
//
// Parameters:
//   - w: destination for log records
//
// Returns:
//   - *slog.Logger: the installed logger
func SetupLogging(w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: LogLevel}))
	slog.SetDefault(logger)
	return logger
}
