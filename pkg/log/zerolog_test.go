package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{in: "", want: zerolog.InfoLevel},
		{in: "DEBUG", want: zerolog.DebugLevel},
		{in: " warning ", want: zerolog.WarnLevel},
		{in: "error", want: zerolog.ErrorLevel},
		{in: "loud", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestZerologAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(zerolog.New(&buf)).With(String("component", "sync"))

	adapter.Info("tick",
		Int("frames", 3),
		Float64("fps", 29.5),
		Duration("elapsed", 2*time.Millisecond),
		Err(errors.New("boom")),
		Uint8("channel", 4),
		Strings("lights", []string{"a", "b"}),
	)

	out := buf.String()
	for _, want := range []string{`"component":"sync"`, `"frames":3`, `"fps":29.5`, `"error":"boom"`, `"channel":4`, `"lights":["a","b"]`, `"message":"tick"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestConsoleLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter, err := NewConsoleLogger(&buf, "warn")
	if err != nil {
		t.Fatalf("NewConsoleLogger: %v", err)
	}
	adapter.Info("hidden")
	adapter.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message written at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing: %s", out)
	}
}
