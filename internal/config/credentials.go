package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
)

// ExpandPath resolves a leading "~/" against the user's home directory.
func ExpandPath(p string) string {
	if len(p) > 1 && p[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}

// ReadToken reads an access token from path. The file may hold either a raw
// token or a JSON object with an "access_token" field, which is the shape
// provider CLIs write. Returns "" with a nil error when the file is missing.
func ReadToken(path string) (string, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading token %s: %w", path, err)
	}
	token, err := ParseToken(data)
	if err != nil {
		return "", fmt.Errorf("reading token %s: %w", path, err)
	}
	return token, nil
}

// ParseToken extracts an access token from a raw token or a JSON object
// with an "access_token" field.
func ParseToken(data []byte) (string, error) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}
	var creds struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal([]byte(trimmed), &creds); err != nil {
		return "", err
	}
	return creds.AccessToken, nil
}

// ReadCookies reads a cookie file of "name=value" lines. Blank lines and
// lines starting with "#" are ignored. Returns nil when the file is missing.
func ReadCookies(path string) (map[string]string, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cookies %s: %w", path, err)
	}
	cookies := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		cookies[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return cookies, nil
}
