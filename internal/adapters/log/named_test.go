package log

import (
	"testing"

	"github.com/bft-labs/lumux/internal/ports"
)

type entry struct {
	level  string
	msg    string
	fields []ports.Field
}

type mockLogger struct {
	entries []entry
}

func (m *mockLogger) Debug(msg string, fields ...ports.Field) { m.add("debug", msg, fields) }
func (m *mockLogger) Info(msg string, fields ...ports.Field)  { m.add("info", msg, fields) }
func (m *mockLogger) Warn(msg string, fields ...ports.Field)  { m.add("warn", msg, fields) }
func (m *mockLogger) Error(msg string, fields ...ports.Field) { m.add("error", msg, fields) }

func (m *mockLogger) add(level, msg string, fields []ports.Field) {
	m.entries = append(m.entries, entry{level: level, msg: msg, fields: fields})
}

func TestNamedAddsComponent(t *testing.T) {
	mock := &mockLogger{}
	l := Named(mock, "capture")

	l.Info("started", ports.Int("display", 1))
	l.Error("failed")

	if len(mock.entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(mock.entries))
	}
	first := mock.entries[0]
	if first.level != "info" || first.msg != "started" {
		t.Errorf("first entry = %+v", first)
	}
	if len(first.fields) != 2 || first.fields[0].Key != "component" || first.fields[0].Value != "capture" {
		t.Errorf("fields = %+v", first.fields)
	}
	if first.fields[1].Key != "display" {
		t.Errorf("caller field moved: %+v", first.fields)
	}
	if mock.entries[1].level != "error" || len(mock.entries[1].fields) != 1 {
		t.Errorf("second entry = %+v", mock.entries[1])
	}
}

func TestOrNoop(t *testing.T) {
	if OrNoop(nil) == nil {
		t.Fatal("OrNoop(nil) returned nil")
	}
	OrNoop(nil).Info("discarded")

	mock := &mockLogger{}
	if OrNoop(mock) != ports.Logger(mock) {
		t.Error("OrNoop replaced a non-nil logger")
	}
	Named(nil, "x").Warn("discarded")
}
