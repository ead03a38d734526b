package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for name, want := range cases {
		if got := ParseLevel(name); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestStartSpanEnrichesLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, "debug"))

	ctx, span := StartSpan(ctx, "unit", slog.String("kind", "test"))
	FromContext(ctx).Info("inside")
	span.End()

	if TraceIDFromContext(ctx) == "" || SpanIDFromContext(ctx) == "" {
		t.Fatal("expected trace and span ids on context")
	}

	var entry map[string]any
	line := bytes.SplitN(buf.Bytes(), []byte("\n"), 2)[0]
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["span_name"] != "unit" || entry["kind"] != "test" || entry["service"] != "vidtube" {
		t.Fatalf("unexpected log entry %v", entry)
	}
}

func TestUserIDRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-1")
	if got := UserIDFromContext(ctx); got != "user-1" {
		t.Fatalf("expected user-1 got %q", got)
	}
	if got := UserIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty user id got %q", got)
	}
}
