package hotkeys

import (
	"fmt"
	"strings"
)

// Modifier names in canonical order.
var modifierOrder = []string{"Shift", "Control", "Mod1", "Mod2", "Mod3", "Mod4", "Mod5"}

var modifierAliases = map[string]string{
	"shift":   "Shift",
	"control": "Control",
	"ctrl":    "Control",
	"mod1":    "Mod1",
	"alt":     "Mod1",
	"mod2":    "Mod2",
	"mod3":    "Mod3",
	"mod4":    "Mod4",
	"super":   "Mod4",
	"win":     "Mod4",
	"mod5":    "Mod5",
}

// NormalizeCombo rewrites a key or button combination such as
// "super+shift+Return" into the xgbutil form "Shift-Mod4-Return", with
// modifiers in a fixed order so equal combos compare equal.
func NormalizeCombo(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty key combination")
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '+' })
	if len(parts) == 0 {
		return "", fmt.Errorf("invalid key combination %q", s)
	}

	key := parts[len(parts)-1]
	seen := make(map[string]bool)
	for _, p := range parts[:len(parts)-1] {
		mod, ok := modifierAliases[strings.ToLower(p)]
		if !ok {
			return "", fmt.Errorf("unknown modifier %q in %q", p, s)
		}
		seen[mod] = true
	}

	var out []string
	for _, mod := range modifierOrder {
		if seen[mod] {
			out = append(out, mod)
		}
	}
	out = append(out, key)
	return strings.Join(out, "-"), nil
}

// ModifierNames returns the canonical names of the modifiers set in an X
// modifier mask.
func ModifierNames(mask uint16) []string {
	var out []string
	for i, name := range modifierOrder {
		if mask&(1<<modifierBit(i)) != 0 {
			out = append(out, name)
		}
	}
	return out
}

// modifierBit maps the canonical order onto X mask bits: Shift=0,
// Lock=1 (skipped), Control=2, Mod1..Mod5=3..7.
func modifierBit(i int) uint {
	if i == 0 {
		return 0
	}
	return uint(i + 1)
}
