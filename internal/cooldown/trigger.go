package cooldown

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/joshuadavidthomas/usagebar/internal/config"
)

// DefaultTriggerTimeout bounds a CLITrigger run when Timeout is zero.
const DefaultTriggerTimeout = 10 * time.Second

// CLITrigger runs a provider CLI whose side effect is refreshing the
// credentials it keeps on disk.
type CLITrigger struct {
	Binary  string
	Args    []string
	Env     map[string]string
	Timeout time.Duration
}

func (t *CLITrigger) Available() bool {
	if t.Binary == "" {
		return false
	}
	_, err := exec.LookPath(t.Binary)
	return err == nil
}

func (t *CLITrigger) Run(ctx context.Context) error {
	binPath, err := exec.LookPath(t.Binary)
	if err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(ctx, orDefault(t.Timeout, DefaultTriggerTimeout))
	defer cancel()

	cmd := exec.CommandContext(tctx, binPath, t.Args...)
	cmd.Stdin = nil
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	cmd.WaitDelay = time.Second
	if len(t.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range t.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", t.Binary, t.Args, err)
	}
	return nil
}

// FileFingerprint fingerprints a credential file by size, modification
// time and content. A missing file yields "".
func FileFingerprint(path string) func() (string, error) {
	return func() (string, error) {
		path := config.ExpandPath(path)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", nil
			}
			return "", err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}

		h := sha256.New()
		var meta [16]byte
		binary.LittleEndian.PutUint64(meta[:8], uint64(info.Size()))
		binary.LittleEndian.PutUint64(meta[8:], uint64(info.ModTime().UnixNano()))
		h.Write(meta[:])
		h.Write(data)
		return hex.EncodeToString(h.Sum(nil)), nil
	}
}
