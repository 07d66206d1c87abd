package cli

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/joshuadavidthomas/usagebar/internal/config"
)

func TestConfigPathCmd_JSON(t *testing.T) {
	dirs := isolate(t)
	buf := captureOutput(t)
	setFlag(t, &jsonOutput, true)

	if err := configPathCmd.RunE(configPathCmd, nil); err != nil {
		t.Fatal(err)
	}
	var paths map[string]string
	if err := json.Unmarshal(buf.Bytes(), &paths); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if paths["config_dir"] != dirs.Config || paths["state_dir"] != dirs.State {
		t.Errorf("paths = %v", paths)
	}
}

func TestConfigShowCmd(t *testing.T) {
	isolate(t)
	buf := captureOutput(t)
	config.Override(t, config.DefaultConfig())

	if err := configShowCmd.RunE(configShowCmd, nil); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Config: ", "[fetch]", "max_accounts = 6"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}
