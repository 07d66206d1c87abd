package strategy

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDecode_JSON(t *testing.T) {
	data := []byte(`{
		"fetched_at": "2026-03-01T12:00:00Z",
		"periods": [
			{"name": "5h", "utilization": 42, "period_type": "session", "resets_at": "2026-03-01T15:00:00Z"},
			{"name": "week", "utilization": 130, "period_type": "weekly"}
		],
		"credits": {"remaining": "12.345", "used": 7.5, "currency": "USD"},
		"identity": {"email": "me@example.com", "plan": "pro"},
		"source": "codex-cli"
	}`)

	r, err := Decode(FormatJSON, "codex", data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	snap := r.Snapshot
	if snap.Provider != "codex" {
		t.Errorf("Provider = %q, want codex", snap.Provider)
	}
	if !snap.FetchedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("FetchedAt = %v", snap.FetchedAt)
	}
	if len(snap.Periods) != 2 {
		t.Fatalf("len(Periods) = %d, want 2", len(snap.Periods))
	}
	if snap.Periods[0].ResetsAt == nil {
		t.Error("ResetsAt not decoded")
	}
	if snap.Periods[1].Utilization != 100 {
		t.Errorf("Utilization = %d, want clamped to 100", snap.Periods[1].Utilization)
	}
	if snap.AccountEmail() != "me@example.com" {
		t.Errorf("email = %q", snap.AccountEmail())
	}
	if r.Credits == nil || !r.Credits.Remaining.Equal(decimal.RequireFromString("12.345")) {
		t.Errorf("Credits = %+v", r.Credits)
	}
	if r.Credits.Used == nil || !r.Credits.Used.Equal(decimal.RequireFromString("7.5")) {
		t.Errorf("Credits.Used = %v", r.Credits.Used)
	}
	if snap.Credits != r.Credits {
		t.Error("snapshot and result should share the decoded credits")
	}
	if r.SourceLabel != "codex-cli" {
		t.Errorf("SourceLabel = %q", r.SourceLabel)
	}
	if len(r.Dashboard) == 0 {
		t.Error("Dashboard should keep the raw payload")
	}
}

func TestDecode_YAML(t *testing.T) {
	data := []byte(`
periods:
  - name: daily
    utilization: 10
    period_type: daily
credits:
  remaining: 0
`)

	r, err := Decode(FormatYAML, "gemini", data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(r.Snapshot.Periods) != 1 || r.Snapshot.Periods[0].Utilization != 10 {
		t.Errorf("Periods = %+v", r.Snapshot.Periods)
	}
	if r.Credits == nil || !r.Credits.IsExhausted() {
		t.Errorf("Credits = %+v, want exhausted", r.Credits)
	}
	if r.Snapshot.FetchedAt.IsZero() {
		t.Error("FetchedAt should default to now")
	}
}

func TestDecode_AutoDetect(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"json", `{"periods":[{"name":"s","utilization":1,"period_type":"session"}]}`},
		{"yaml", "periods:\n  - name: s\n    utilization: 1\n    period_type: session\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Decode(FormatAuto, "p", []byte(tt.data))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if len(r.Snapshot.Periods) != 1 {
				t.Errorf("Periods = %+v", r.Snapshot.Periods)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"empty", FormatJSON, "   "},
		{"malformed json", FormatJSON, `{"periods": [`},
		{"no usage", FormatJSON, `{"source": "x"}`},
		{"bad amount", FormatJSON, `{"credits": {"remaining": "lots"}}`},
		{"malformed yaml", FormatYAML, "periods: [unclosed"},
		{"unknown format", Format("xml"), "<usage/>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.format, "p", []byte(tt.data))
			if !errors.Is(err, ErrDecode) {
				t.Errorf("err = %v, want ErrDecode", err)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"json", FormatJSON, false},
		{" YAML ", FormatYAML, false},
		{"toml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
