//go:build !darwin

package keychain

import "context"

// ReadGenericPassword is only available on macOS.
func ReadGenericPassword(_ context.Context, _, _ string) (string, error) {
	return "", ErrUnavailable
}
