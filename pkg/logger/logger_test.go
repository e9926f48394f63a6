package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/ebaybuy/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "", want: slog.LevelInfo},
		{input: "trace", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, logger.ParseLevel(tt.input))
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	require.NotNil(t, logger.New("info", "text"))
}

func TestNewWithWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		level      string
		format     string
		log        func(*slog.Logger)
		want       []string
		wantAbsent []string
	}{
		{
			name:   "text",
			level:  "info",
			format: "text",
			log:    func(l *slog.Logger) { l.Info("token refreshed", "environment", "sandbox") },
			want:   []string{"level=INFO", `msg="token refreshed"`, "environment=sandbox"},
		},
		{
			name:   "json",
			level:  "info",
			format: "JSON",
			log:    func(l *slog.Logger) { l.Info("token refreshed") },
			want:   []string{`"level":"INFO"`, `"msg":"token refreshed"`},
		},
		{
			name:       "debug suppressed at info",
			level:      "info",
			format:     "text",
			log:        func(l *slog.Logger) { l.Debug("request", "url", "https://api.ebay.com") },
			wantAbsent: []string{"request"},
		},
		{
			name:   "debug carries source",
			level:  "debug",
			format: "text",
			log:    func(l *slog.Logger) { l.Debug("request") },
			want:   []string{"level=DEBUG", "source=", "logger_test.go"},
		},
		{
			name:       "info suppressed at warn",
			level:      "warn",
			format:     "text",
			log:        func(l *slog.Logger) { l.Info("search") },
			wantAbsent: []string{"search"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.log(logger.NewWithWriter(&buf, tt.level, tt.format))

			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
			for _, absent := range tt.wantAbsent {
				assert.NotContains(t, buf.String(), absent)
			}
		})
	}
}

func TestNewWithWriter_RedactsCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format string
		want   []string
	}{
		{
			name:   "text",
			format: "text",
			want:   []string{"client_secret=[REDACTED]", "Authorization=[REDACTED]", "header=[REDACTED]", "client_id=my-app-id"},
		},
		{
			name:   "json",
			format: "json",
			want:   []string{`"client_secret":"[REDACTED]"`, `"header":"[REDACTED]"`, `"client_id":"my-app-id"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			l := logger.NewWithWriter(&buf, "info", tt.format)
			l.Info("configured",
				"client_id", "my-app-id",
				"client_secret", "super-secret",
				"Authorization", "Bearer abc123",
				slog.Group("request", "header", "Basic S2V5OlNlY3JldA=="),
			)

			output := buf.String()
			for _, want := range tt.want {
				assert.Contains(t, output, want)
			}
			assert.NotContains(t, output, "super-secret")
			assert.NotContains(t, output, "abc123")
			assert.NotContains(t, output, "S2V5OlNlY3JldA==")
		})
	}
}
