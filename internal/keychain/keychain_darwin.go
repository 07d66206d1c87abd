//go:build darwin

package keychain

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const lookupTimeout = 2 * time.Second

// ReadGenericPassword reads a generic password from macOS Keychain using the
// `security` CLI. If account is empty, the account filter is omitted.
func ReadGenericPassword(ctx context.Context, service, account string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	args := []string{"find-generic-password", "-s", service}
	if account != "" {
		args = append(args, "-a", account)
	}
	args = append(args, "-w")

	out, err := exec.CommandContext(ctx, "security", args...).Output()
	if err != nil {
		return "", fmt.Errorf("keychain lookup %s: %w", service, err)
	}
	return strings.TrimSpace(string(out)), nil
}
