package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func newBufLogger() (*SlogLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	return m
}

func TestSlogLogger_Levels(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		log  func(l *SlogLogger)
		want string
	}{
		{name: "debug", log: func(l *SlogLogger) { l.Debug(ctx, "m") }, want: "DEBUG"},
		{name: "info", log: func(l *SlogLogger) { l.Info(ctx, "m") }, want: "INFO"},
		{name: "warn", log: func(l *SlogLogger) { l.Warn(ctx, "m") }, want: "WARN"},
		{name: "error", log: func(l *SlogLogger) { l.Error(ctx, "m") }, want: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newBufLogger()
			tt.log(l)
			m := decodeLine(t, buf)
			if m["level"] != tt.want {
				t.Fatalf("want level %s, got %v", tt.want, m["level"])
			}
		})
	}
}

func TestSlogLogger_WithAddsFields(t *testing.T) {
	l, buf := newBufLogger()
	child := l.With("module", "http_server")
	child.Info(context.Background(), "started", "addr", ":8080")

	m := decodeLine(t, buf)
	if m["module"] != "http_server" || m["addr"] != ":8080" {
		t.Fatalf("missing fields in %v", m)
	}
}
