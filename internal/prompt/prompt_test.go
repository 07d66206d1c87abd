package prompt

import (
	"errors"
	"testing"
)

func TestMock_Select(t *testing.T) {
	m := &Mock{
		SelectFunc: func(cfg SelectConfig) (string, error) {
			return cfg.Options[1].Value, nil
		},
	}

	got, err := m.Select(SelectConfig{Title: "Pick", Options: []Option{{Value: "a"}, {Value: "b"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "b" {
		t.Errorf("got %q, want %q", got, "b")
	}
	if len(m.SelectCalls) != 1 || m.SelectCalls[0].Title != "Pick" {
		t.Errorf("SelectCalls = %+v", m.SelectCalls)
	}
}

func TestMock_ZeroValues(t *testing.T) {
	m := &Mock{}
	if v, err := m.Select(SelectConfig{}); v != "" || err != nil {
		t.Errorf("Select() = %q, %v", v, err)
	}
	if v, err := m.Confirm(ConfirmConfig{}); v || err != nil {
		t.Errorf("Confirm() = %v, %v", v, err)
	}
}

func TestMock_ConfirmError(t *testing.T) {
	m := &Mock{
		ConfirmFunc: func(ConfirmConfig) (bool, error) {
			return false, errors.New("user cancelled")
		},
	}
	if _, err := m.Confirm(ConfirmConfig{Title: "Sure?"}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestHuh_SelectWithoutOptions(t *testing.T) {
	_, err := (&Huh{}).Select(SelectConfig{Title: "Pick"})
	if !errors.Is(err, ErrNoOptions) {
		t.Errorf("Select() error = %v, want ErrNoOptions", err)
	}
}

func TestSetDefault(t *testing.T) {
	prev := Default
	t.Cleanup(func() { SetDefault(prev) })

	m := &Mock{}
	SetDefault(m)
	if Default != m {
		t.Error("SetDefault did not replace Default")
	}
}
