package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("messages below WARN were written:\n%s", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, `msg="warn 3"`) {
		t.Errorf("warn message missing:\n%s", out)
	}
	if !strings.Contains(out, `msg="error 4"`) {
		t.Errorf("error message missing:\n%s", out)
	}
	if !strings.Contains(out, "component=modelvalidator") {
		t.Errorf("component attribute missing:\n%s", out)
	}
}

func TestSetLevelAndNone(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelError)

	l.Info("hidden")
	l.SetLevel(LevelDebug)
	l.Debug("shown")
	l.SetLevel(LevelNone)
	l.Error("silenced")

	out := buf.String()
	if strings.Contains(out, "hidden") || strings.Contains(out, "silenced") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("debug message missing after SetLevel:\n%s", out)
	}
}

func TestWithRenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo).With("schema", "Patient", "error", errors.New("boom"))

	l.Info("validated")

	out := buf.String()
	if !strings.Contains(out, "schema=Patient") {
		t.Errorf("With attribute missing:\n%s", out)
	}
	if !strings.Contains(out, "err=boom") {
		t.Errorf("error key was not renamed to err:\n%s", out)
	}
}

func TestSetOutput(t *testing.T) {
	var first, second bytes.Buffer
	l := New(&first, LevelInfo)
	l.SetOutput(&second)
	l.Info("moved")

	if first.Len() != 0 {
		t.Errorf("old output got %q", first.String())
	}
	if !strings.Contains(second.String(), "moved") {
		t.Errorf("new output = %q, want it to contain %q", second.String(), "moved")
	}
}

func TestDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	var buf bytes.Buffer
	SetDefault(New(&buf, LevelInfo))
	Info("hello %s", "world")
	Disable()
	Error("dropped")

	out := buf.String()
	if !strings.Contains(out, "hello world") {
		t.Errorf("default logger output = %q", out)
	}
	if strings.Contains(out, "dropped") {
		t.Errorf("Disable() did not silence the default logger: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"ERROR", LevelError, false},
		{"off", LevelNone, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestNop(t *testing.T) {
	l := NewNop()
	if l.Enabled(LevelError) {
		t.Error("NewNop() logger should not be enabled")
	}
	l.Error("nothing")
}
