package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := Setup(&buf, "json", "warn")

	logger.Info("dropped")
	logger.WithComponent(ComponentStore).Warn("store slow", FieldOperation, OpList)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line at warn level, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["msg"] != "store slow" || rec[FieldComponent] != ComponentStore || rec[FieldOperation] != OpList {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestNewHandlerFormats(t *testing.T) {
	for _, format := range []string{"text", "json", "tint"} {
		var buf bytes.Buffer
		slog.New(NewHandler(&buf, format, slog.LevelInfo)).Info("hello", "k", "v")
		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("%s handler output missing message: %q", format, buf.String())
		}
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got == nil || got.Component() != ComponentApp {
		t.Fatalf("expected default app logger, got %+v", got)
	}

	var buf bytes.Buffer
	base := New(Config{Handler: slog.NewJSONHandler(&buf, nil), Component: ComponentApp}).With(FieldRequestID, "req_1")
	handler := Middleware(base)(ComponentMiddleware(ComponentHTTP)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	out := buf.String()
	for _, want := range []string{`"request_id":"req_1"`, `"component":"http"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Handler: slog.NewJSONHandler(&buf, nil), Component: ComponentHTTP}))

	sl.LogBillCreated(context.Background(), "b1", "Asha", "9876543210", 8.5, 340)
	sl.LogHTTPEnd(context.Background(), httptest.NewRequest(http.MethodPost, "/bills", nil), http.StatusBadGateway, 12, "10.0.0.1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d: %s", len(lines), buf.String())
	}
	for _, want := range []string{`"bill_id":"b1"`, `"total_amount":340`, `"component":"billing"`} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("bill record missing %s: %s", want, lines[0])
		}
	}
	for _, want := range []string{`"level":"ERROR"`, `"status_code":502`, `"component":"http"`} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("request record missing %s: %s", want, lines[1])
		}
	}
}
