package strategy

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/joshuadavidthomas/usagebar/internal/fetch"
	"github.com/joshuadavidthomas/usagebar/internal/models"
)

// Format names the encoding of a usage payload.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a configured format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown payload format %q (valid: json, yaml)", s)
	}
}

// amount accepts a number or a quoted string so decimals keep full precision.
type amount string

func (a *amount) UnmarshalJSON(b []byte) error {
	*a = amount(strings.Trim(string(b), `"`))
	return nil
}

func (a *amount) UnmarshalYAML(n *yaml.Node) error {
	*a = amount(n.Value)
	return nil
}

func (a amount) decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(string(a)))
}

type wireCredits struct {
	Remaining amount  `json:"remaining" yaml:"remaining"`
	Used      *amount `json:"used" yaml:"used"`
	Currency  string  `json:"currency" yaml:"currency"`
}

func (w *wireCredits) toCredits() (*models.Credits, error) {
	remaining, err := w.Remaining.decimal()
	if err != nil {
		return nil, fmt.Errorf("credits.remaining: %w", err)
	}
	c := &models.Credits{Remaining: remaining, Currency: w.Currency}
	if w.Used != nil {
		used, err := w.Used.decimal()
		if err != nil {
			return nil, fmt.Errorf("credits.used: %w", err)
		}
		c.Used = &used
	}
	return c, nil
}

// wireSnapshot is the payload shape CLIs, probes and endpoints emit.
type wireSnapshot struct {
	FetchedAt *time.Time               `json:"fetched_at" yaml:"fetched_at"`
	Periods   []models.UsagePeriod     `json:"periods" yaml:"periods"`
	Credits   *wireCredits             `json:"credits" yaml:"credits"`
	Identity  *models.ProviderIdentity `json:"identity" yaml:"identity"`
	Source    string                   `json:"source" yaml:"source"`
}

// Decode parses data in the given format into a fetch result for
// providerID. FormatAuto sniffs JSON by a leading '{' and falls back to
// YAML. Every error wraps ErrDecode.
func Decode(format Format, providerID string, data []byte) (fetch.Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fetch.Result{}, fmt.Errorf("%w: empty body", ErrDecode)
	}
	if format == FormatAuto {
		format = FormatYAML
		if trimmed[0] == '{' {
			format = FormatJSON
		}
	}

	var w wireSnapshot
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(trimmed, &w)
	case FormatYAML:
		err = yaml.Unmarshal(trimmed, &w)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return fetch.Result{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if len(w.Periods) == 0 && w.Credits == nil {
		return fetch.Result{}, fmt.Errorf("%w: no usage periods or credits", ErrDecode)
	}

	snap := models.UsageSnapshot{
		Provider: providerID,
		Periods:  w.Periods,
		Identity: w.Identity,
		Source:   w.Source,
	}
	if w.FetchedAt != nil {
		snap.FetchedAt = w.FetchedAt.UTC()
	} else {
		snap.FetchedAt = time.Now().UTC()
	}
	for i := range snap.Periods {
		p := &snap.Periods[i]
		p.Utilization = max(0, min(100, p.Utilization))
	}

	result := fetch.Result{Snapshot: snap, Dashboard: bytes.Clone(trimmed), SourceLabel: w.Source}
	if w.Credits != nil {
		credits, err := w.Credits.toCredits()
		if err != nil {
			return fetch.Result{}, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		result.Snapshot.Credits = credits
		result.Credits = credits
	}
	return result, nil
}
