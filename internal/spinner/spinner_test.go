package spinner

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestShouldShow(t *testing.T) {
	tests := []struct {
		name                string
		quiet, json, nonTTY bool
		want                bool
	}{
		{"interactive", false, false, false, true},
		{"quiet", true, false, false, false},
		{"json", false, true, false, false},
		{"piped", false, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldShow(tt.quiet, tt.json, tt.nonTTY); got != tt.want {
				t.Errorf("ShouldShow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewModel_DedupesProviders(t *testing.T) {
	m := newModel([]string{"claude", "codex", "claude"})
	if len(m.order) != 2 || len(m.inflight) != 2 {
		t.Errorf("order = %v, inflight = %v", m.order, m.inflight)
	}
}

func TestModelUpdate_Completion(t *testing.T) {
	m := newModel([]string{"claude", "codex"})

	updated, cmd := m.Update(completionMsg{ProviderID: "codex", Success: true, Source: "oauth"})
	m = updated.(model)
	if cmd != nil {
		t.Error("expected no command after non-final completion")
	}
	if m.inflight["codex"] || len(m.completions) != 1 {
		t.Errorf("inflight = %v, completions = %v", m.inflight, m.completions)
	}

	// Duplicates and unknown providers are ignored.
	updated, _ = m.Update(completionMsg{ProviderID: "codex", Success: false})
	m = updated.(model)
	if !m.completions["codex"].Success {
		t.Error("duplicate completion overwrote the first")
	}
	updated, _ = m.Update(completionMsg{ProviderID: "gemini"})
	m = updated.(model)
	if len(m.completions) != 1 {
		t.Errorf("unknown completion recorded: %v", m.completions)
	}

	updated, cmd = m.Update(completionMsg{ProviderID: "claude"})
	m = updated.(model)
	if !m.quitting || cmd == nil {
		t.Error("expected quit after final completion")
	}
}

func TestModelUpdate_CtrlC(t *testing.T) {
	m := newModel([]string{"claude"})
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !updated.(model).quitting || cmd == nil {
		t.Error("ctrl-c should quit")
	}
}

func TestModelView(t *testing.T) {
	m := newModel([]string{"claude", "codex", "gemini"})
	updated, _ := m.Update(completionMsg{ProviderID: "claude", Success: true, Source: "oauth", Accounts: 3})
	updated, _ = updated.(model).Update(completionMsg{ProviderID: "codex"})
	view := updated.(model).View()

	lines := strings.Split(view, "\n")
	if len(lines) != 3 {
		t.Fatalf("view = %q", view)
	}
	if lines[0] != "✓ claude via oauth, 3 accounts" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "✗ codex" {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], " gemini") {
		t.Errorf("line 2 = %q", lines[2])
	}
}

func TestModelView_EmptyWhenQuitting(t *testing.T) {
	m := newModel([]string{"claude"})
	m.quitting = true
	if v := m.View(); v != "" {
		t.Errorf("View() = %q, want empty", v)
	}
}

func TestRun_NoProviders(t *testing.T) {
	called := false
	err := Run(context.Background(), &bytes.Buffer{}, nil, func(onComplete func(Completion)) {
		called = true
		onComplete(Completion{ProviderID: "x"})
	})
	if err != nil || !called {
		t.Errorf("Run() err = %v, called = %v", err, called)
	}
}

func TestRun_CompletesAll(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), &out, []string{"claude", "codex"}, func(onComplete func(Completion)) {
		onComplete(Completion{ProviderID: "claude", Success: true})
		onComplete(Completion{ProviderID: "codex", Success: true})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}
