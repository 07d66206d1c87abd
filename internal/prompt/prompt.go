// Package prompt wraps the interactive prompts used by commands behind an
// interface so tests can script the answers.
package prompt

import (
	"errors"

	"github.com/charmbracelet/huh"
)

// ErrNoOptions is returned by Select when there is nothing to choose.
var ErrNoOptions = errors.New("no options to choose from")

// Option is one choice in a Select prompt.
type Option struct {
	Label string
	Value string
}

type SelectConfig struct {
	Title       string
	Description string
	Options     []Option
	// Default is the value preselected when the prompt opens.
	Default string
}

type ConfirmConfig struct {
	Title       string
	Description string
	Default     bool
}

// Prompter defines the interface for interactive user prompts.
type Prompter interface {
	Select(cfg SelectConfig) (string, error)
	Confirm(cfg ConfirmConfig) (bool, error)
}

// Default is the package-level prompter used by commands.
// In production this is a Huh instance; tests can swap it with a Mock.
var Default Prompter = &Huh{}

// SetDefault replaces the package-level prompter.
func SetDefault(p Prompter) {
	Default = p
}

// Huh implements Prompter using charmbracelet/huh forms.
type Huh struct{}

func (h *Huh) Select(cfg SelectConfig) (string, error) {
	if len(cfg.Options) == 0 {
		return "", ErrNoOptions
	}
	value := cfg.Default
	options := make([]huh.Option[string], len(cfg.Options))
	for i, opt := range cfg.Options {
		options[i] = huh.NewOption(opt.Label, opt.Value)
	}

	sel := huh.NewSelect[string]().
		Title(cfg.Title).
		Options(options...).
		Value(&value)
	if cfg.Description != "" {
		sel.Description(cfg.Description)
	}

	err := huh.NewForm(huh.NewGroup(sel)).Run()
	return value, err
}

func (h *Huh) Confirm(cfg ConfirmConfig) (bool, error) {
	value := cfg.Default
	confirm := huh.NewConfirm().
		Title(cfg.Title).
		Value(&value)
	if cfg.Description != "" {
		confirm.Description(cfg.Description)
	}

	err := huh.NewForm(huh.NewGroup(confirm)).Run()
	return value, err
}
