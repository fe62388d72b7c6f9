//go:build debug

package common

import "log/slog"

var defaultLogLevel = slog.LevelDebug

// DebugBuild reports whether the binary was built with the debug tag.
const DebugBuild = true
