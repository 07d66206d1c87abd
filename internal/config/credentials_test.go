package config

import (
	"path/filepath"
	"testing"
)

func TestReadToken(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "raw")
	writeTestFile(t, raw, []byte("  tok-123\n"))
	obj := filepath.Join(dir, "obj.json")
	writeTestFile(t, obj, []byte(`{"access_token":"tok-456","refresh_token":"r"}`))

	tests := []struct {
		name string
		path string
		want string
	}{
		{"raw token", raw, "tok-123"},
		{"json token", obj, "tok-456"},
		{"missing file", filepath.Join(dir, "missing"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadToken(tt.path)
			if err != nil {
				t.Fatalf("ReadToken() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	writeTestFile(t, path, []byte("# comment\nsessionKey = abc\n\nbroken\norg=42\n"))

	got, err := ReadCookies(path)
	if err != nil {
		t.Fatalf("ReadCookies() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %v", len(got), got)
	}
	if got["sessionKey"] != "abc" || got["org"] != "42" {
		t.Errorf("cookies = %v", got)
	}
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"raw", "  tok-123\n", "tok-123", false},
		{"json", `{"access_token":"abc","refresh_token":"r"}`, "abc", false},
		{"json without token", `{"other":1}`, "", false},
		{"broken json", `{"access_token":`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseToken([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
