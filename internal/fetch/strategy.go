package fetch

import (
	"context"
	"maps"
	"time"

	"github.com/joshuadavidthomas/usagebar/internal/httpclient"
	"github.com/joshuadavidthomas/usagebar/internal/models"
)

// Kind tags the retrieval mechanism a strategy uses.
type Kind string

const (
	KindCLI   Kind = "cli"
	KindProbe Kind = "probe"
	KindWeb   Kind = "web"
	KindOAuth Kind = "oauth"
	KindAPI   Kind = "api"
)

// RuntimeKind describes the process driving the fetch.
type RuntimeKind string

const (
	RuntimeApp RuntimeKind = "app"
	RuntimeCLI RuntimeKind = "cli"
)

// SourceMode is the user's preferred retrieval mechanism. SourceAuto keeps
// every candidate in priority order.
type SourceMode string

const (
	SourceAuto  SourceMode = "auto"
	SourceCLI   SourceMode = "cli"
	SourceWeb   SourceMode = "web"
	SourceOAuth SourceMode = "oauth"
	SourceAPI   SourceMode = "api"
)

// Allows reports whether a strategy of kind k may run under mode m. The
// local probe is a terminal scrape of the CLI, so it counts as "cli".
func (m SourceMode) Allows(k Kind) bool {
	switch m {
	case "", SourceAuto:
		return true
	case SourceCLI:
		return k == KindCLI || k == KindProbe
	default:
		return string(m) == string(k)
	}
}

// ProbeFunc scrapes usage from a local interactive session (e.g. a PTY
// running the provider CLI) and returns the raw encoded snapshot.
type ProbeFunc func(ctx context.Context, providerID string) ([]byte, error)

// Fetchers are the lower-level handles strategies use for I/O.
type Fetchers struct {
	HTTP  *httpclient.Client
	Probe ProbeFunc
}

// Context holds the immutable parameters of one fetch call. It is passed by
// value to every strategy; the maps must be treated as read-only.
type Context struct {
	ProviderID string
	AccountID  string
	Runtime    RuntimeKind
	SourceMode SourceMode
	// Timeout overrides Pipeline.Timeout when non-zero.
	Timeout  time.Duration
	Env      map[string]string
	Settings map[string]string
	Fetchers Fetchers
}

// ForAccount returns a copy of c scoped to accountID with env layered over
// the base environment.
func (c Context) ForAccount(accountID string, env map[string]string) Context {
	out := c
	out.AccountID = accountID
	out.Env = make(map[string]string, len(c.Env)+len(env))
	maps.Copy(out.Env, c.Env)
	maps.Copy(out.Env, env)
	return out
}

// Getenv returns the value of key from the context environment.
func (c Context) Getenv(key string) string {
	return c.Env[key]
}

// Strategy is one mechanism for retrieving usage for a provider.
//
// Fetch may block on subprocesses, network or terminal I/O, but must return
// promptly once ctx is done. ShouldFallback decides, per error, whether the
// pipeline may move on to the next candidate.
type Strategy interface {
	ID() string
	Kind() Kind
	IsAvailable(ctx context.Context, fc Context) bool
	Fetch(ctx context.Context, fc Context) (Result, error)
	ShouldFallback(err error, fc Context) bool
}

// Resolver produces the ordered candidate list for a fetch context.
type Resolver func(fc Context) []Strategy

// Result is the output of a strategy that ran to completion.
type Result struct {
	Snapshot models.UsageSnapshot
	Credits  *models.Credits
	// Dashboard is an optional provider-specific payload kept verbatim.
	Dashboard   []byte
	SourceLabel string
	StrategyID  string
	Kind        Kind
}

// Attempt records one strategy probed during a pipeline run.
type Attempt struct {
	StrategyID   string `json:"strategy_id"`
	Kind         Kind   `json:"kind"`
	WasAvailable bool   `json:"was_available"`
	Error        string `json:"error,omitempty"`
}

// Outcome is the final verdict of a pipeline run. Attempts are in strategy
// priority order.
type Outcome struct {
	ProviderID string
	AccountID  string
	Result     *Result
	Err        error
	Attempts   []Attempt
}

func (o Outcome) Success() bool {
	return o.Result != nil
}

// ErrorMessage returns the error text, or "" on success.
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Source returns the winning strategy's source label, or "".
func (o Outcome) Source() string {
	if o.Result == nil {
		return ""
	}
	if o.Result.SourceLabel != "" {
		return o.Result.SourceLabel
	}
	return o.Result.StrategyID
}
