package x11

import (
	"os"
	"testing"

	"github.com/BurntSushi/xgbutil/keybind"
)

func TestRefreshKeyboardMapping(t *testing.T) {
	if os.Getenv("DISPLAY") == "" {
		t.Skip("no X display")
	}
	c, err := NewConnection("")
	if err != nil {
		t.Skipf("cannot connect to X: %v", err)
	}
	defer c.Close()

	before := keybind.KeyMapGet(c.XUtil)
	c.RefreshKeyboardMapping()
	after := keybind.KeyMapGet(c.XUtil)
	if after == nil || keybind.ModMapGet(c.XUtil) == nil {
		t.Fatalf("keyboard maps missing after refresh")
	}
	if after == before {
		t.Fatalf("expected the keyboard map to be replaced")
	}
}
