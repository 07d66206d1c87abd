package strategy

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/joshuadavidthomas/usagebar/internal/fetch"
	"github.com/joshuadavidthomas/usagebar/internal/httpclient"
)

// CLI runs a provider's command-line tool and decodes its stdout.
type CLI struct {
	Name   string
	Binary string
	Args   []string
	Format Format
}

func (s *CLI) ID() string       { return s.Name }
func (s *CLI) Kind() fetch.Kind { return fetch.KindCLI }

func (s *CLI) IsAvailable(_ context.Context, fc fetch.Context) bool {
	_, err := lookPath(s.Binary, fc.Getenv("PATH"))
	return err == nil
}

func (s *CLI) Fetch(ctx context.Context, fc fetch.Context) (fetch.Result, error) {
	bin, err := lookPath(s.Binary, fc.Getenv("PATH"))
	if err != nil {
		return fetch.Result{}, err
	}

	cmd := exec.CommandContext(ctx, bin, s.Args...)
	cmd.Env = commandEnv(fc.Env)
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return fetch.Result{}, ctx.Err()
		}
		return fetch.Result{}, fmt.Errorf("%s failed: %w (%s)", filepath.Base(bin), err, httpclient.SummarizeBody(stderr.Bytes()))
	}
	result, err := Decode(s.Format, fc.ProviderID, out)
	if err != nil {
		return fetch.Result{}, err
	}
	if result.SourceLabel == "" {
		result.SourceLabel = filepath.Base(bin)
	}
	return result, nil
}

// ShouldFallback always moves on: CLI output is the least reliable source.
func (s *CLI) ShouldFallback(err error, _ fetch.Context) bool {
	return !isCancelled(err)
}

// lookPath resolves bin against pathEnv, or the process PATH when pathEnv
// is empty.
func lookPath(bin, pathEnv string) (string, error) {
	if bin == "" {
		return "", exec.ErrNotFound
	}
	if pathEnv == "" || strings.ContainsRune(bin, os.PathSeparator) {
		return exec.LookPath(bin)
	}
	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			continue
		}
		p := filepath.Join(dir, bin)
		if info, err := os.Stat(p); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return p, nil
		}
	}
	return "", &exec.Error{Name: bin, Err: exec.ErrNotFound}
}

// commandEnv layers env over the process environment. A nil env inherits
// the process environment unchanged.
func commandEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := os.Environ()
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
