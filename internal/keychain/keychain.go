// Package keychain reads secrets that provider CLIs keep in the OS
// credential store.
package keychain

import "errors"

// ErrUnavailable is returned on platforms without a supported keychain.
var ErrUnavailable = errors.New("keychain not available on this platform")
