package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger_DefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	if l.GetLevel() != log.WarnLevel {
		t.Errorf("expected default level WarnLevel, got %v", l.GetLevel())
	}
}

func TestConfigure_Levels(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		want  log.Level
	}{
		{"default", Flags{}, log.WarnLevel},
		{"verbose", Flags{Verbose: true}, log.DebugLevel},
		{"quiet", Flags{Quiet: true}, log.ErrorLevel},
		{"quiet wins over verbose", Flags{Verbose: true, Quiet: true}, log.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLogger(&bytes.Buffer{})
			Configure(l, tt.flags)
			if l.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", l.GetLevel(), tt.want)
			}
		})
	}
}

func TestConfigure_JSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	Configure(l, Flags{Verbose: true, JSON: true})

	l.Debug("hello", "provider", "claude")

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) {
		t.Errorf("expected JSON msg field, got %q", out)
	}
	if !strings.Contains(out, `"provider":"claude"`) {
		t.Errorf("expected JSON provider field, got %q", out)
	}
}

func TestConfigure_NoColorOutputHasNoEscapes(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	Configure(l, Flags{Verbose: true, NoColor: true})

	l.Warn("plain")

	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected no ANSI escapes, got %q", buf.String())
	}
}
