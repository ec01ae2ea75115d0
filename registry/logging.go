package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oneshotmcp/mcp-oneshot-go/mcp"
)

// slogLevelLogging feeds accepted logging/setLevel values into a
// slog.LevelVar so the requested level actually filters the server's own
// logs for the remainder of the process.
type slogLevelLogging struct {
	level *slog.LevelVar
}

// NewSlogLevelVarLogging returns a LoggingCapability that maps protocol
// severities onto the given slog.LevelVar. The caller wires the same LevelVar
// into its slog handler.
func NewSlogLevelVarLogging(level *slog.LevelVar) LoggingCapability {
	return &slogLevelLogging{level: level}
}

// SetLevel implements LoggingCapability. Levels outside the protocol's
// severity set return ErrInvalidLoggingLevel; the dispatcher maps that to an
// invalid-params protocol error.
func (l *slogLevelLogging) SetLevel(ctx context.Context, level mcp.LoggingLevel) error {
	if !mcp.IsValidLoggingLevel(level) {
		return fmt.Errorf("%w: %q", ErrInvalidLoggingLevel, level)
	}
	l.level.Set(SlogLevel(level))
	return nil
}

// SlogLevel maps a protocol severity to the nearest slog level. The four
// severities above error have no slog equivalent and collapse onto
// slog.LevelError offsets so ordering is preserved.
func SlogLevel(level mcp.LoggingLevel) slog.Level {
	switch level {
	case mcp.LoggingLevelDebug:
		return slog.LevelDebug
	case mcp.LoggingLevelInfo:
		return slog.LevelInfo
	case mcp.LoggingLevelNotice:
		return slog.LevelInfo + 2
	case mcp.LoggingLevelWarning:
		return slog.LevelWarn
	case mcp.LoggingLevelError:
		return slog.LevelError
	case mcp.LoggingLevelCritical:
		return slog.LevelError + 4
	case mcp.LoggingLevelAlert:
		return slog.LevelError + 8
	case mcp.LoggingLevelEmergency:
		return slog.LevelError + 12
	}
	return slog.LevelInfo
}
