// Package logger builds the ebaybuy slog.Logger: text or JSON output, a
// level, and redaction of anything that looks like an eBay credential.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Redacted replaces the value of sensitive attributes.
const Redacted = "[REDACTED]"

var sensitiveKeys = map[string]bool{
	"client_secret": true,
	"access_token":  true,
	"authorization": true,
	"password":      true,
	"token":         true,
}

// credentialSchemes are HTTP auth schemes whose values are redacted under
// any key.
var credentialSchemes = []string{"bearer ", "basic "}

// New returns a logger writing to stderr. level is debug, info, warn or
// error (default info); format is json or text (default text).
func New(level, format string) *slog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter is New writing to w. At debug level records carry their
// source location.
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   lvl <= slog.LevelDebug,
		ReplaceAttr: redact,
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a level name to slog.Level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, Redacted)
	}
	if a.Value.Kind() == slog.KindString {
		v := strings.ToLower(a.Value.String())
		for _, scheme := range credentialSchemes {
			if strings.HasPrefix(v, scheme) {
				return slog.String(a.Key, Redacted)
			}
		}
	}
	return a
}
