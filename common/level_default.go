//go:build !debug && !release

package common

import "log/slog"

var defaultLogLevel = slog.LevelInfo

// DebugBuild reports whether the binary was built with the debug tag.
const DebugBuild = false
