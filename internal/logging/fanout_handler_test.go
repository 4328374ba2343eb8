package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTeeHandlerCollapses(t *testing.T) {
	if _, ok := TeeHandler(nil, nil).(noopHandler); !ok {
		t.Fatal("expected a no-op handler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if got := TeeHandler(nil, inner); got != inner {
		t.Fatalf("expected lone handler unwrapped, got %T", got)
	}
}

func TestTeeHandlerRespectsPerHandlerLevels(t *testing.T) {
	var info, debug bytes.Buffer
	h := TeeHandler(
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug enabled through second handler")
	}

	logger := slog.New(h).With("run_id", "abc")
	logger.Debug("probe")
	logger.Info("done")

	if strings.Contains(info.String(), "probe") {
		t.Fatalf("info handler received debug record: %s", info.String())
	}
	if !strings.Contains(debug.String(), "probe") || !strings.Contains(debug.String(), "done") {
		t.Fatalf("debug handler missing records: %s", debug.String())
	}
	if !strings.Contains(info.String(), `"run_id":"abc"`) {
		t.Fatalf("expected With attrs on every branch: %s", info.String())
	}
}
