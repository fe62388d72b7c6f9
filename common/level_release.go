//go:build release && !debug

package common

import "log/slog"

var defaultLogLevel = slog.LevelWarn

// DebugBuild reports whether the binary was built with the debug tag.
const DebugBuild = false
