package hotkeys

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xevent"
)

type keyBinding struct {
	mods uint16
	code xproto.Keycode
}

type buttonBinding struct {
	mods   uint16
	button xproto.Button
}

// Binder owns the passive key and button grabs on the root window and
// translates grabbed events back into the combo strings they were bound as.
type Binder struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *slog.Logger

	mu      sync.RWMutex
	keys    map[keyBinding]string
	buttons map[buttonBinding]string
	ignore  uint16
}

var ignoreModsOnce sync.Once

// NewBinder prepares keyboard and pointer binding on root.
func NewBinder(xu *xgbutil.XUtil, root xproto.Window, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	keybind.Initialize(xu)
	mousebind.Initialize(xu)
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	var ignore uint16
	for _, m := range xevent.IgnoreMods {
		ignore |= m
	}

	return &Binder{
		xu:      xu,
		root:    root,
		logger:  logger,
		keys:    make(map[keyBinding]string),
		buttons: make(map[buttonBinding]string),
		ignore:  ignore,
	}
}

// GrabKeys replaces all key grabs with the given combos. Combos that fail
// to parse or grab are logged and skipped.
func (b *Binder) GrabKeys(combos []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	xproto.UngrabKey(b.xu.Conn(), xproto.GrabAny, b.root, xproto.ModMaskAny)
	b.keys = make(map[keyBinding]string)

	var failed []string
	for _, combo := range combos {
		mods, codes, err := keybind.ParseString(b.xu, combo)
		if err != nil || len(codes) == 0 {
			b.logger.Warn("cannot parse key binding", "combo", combo, "error", err)
			failed = append(failed, combo)
			continue
		}
		for _, code := range codes {
			if err := keybind.GrabChecked(b.xu, b.root, mods, code); err != nil {
				b.logger.Warn("key grab failed", "combo", combo, "error", err)
				failed = append(failed, combo)
				continue
			}
			b.keys[keyBinding{mods: mods, code: code}] = combo
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to bind keys: %s", strings.Join(failed, ", "))
	}
	return nil
}

// GrabButtons replaces all button grabs with the given combos.
func (b *Binder) GrabButtons(combos []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	xproto.UngrabButton(b.xu.Conn(), xproto.ButtonIndexAny, b.root, xproto.ModMaskAny)
	b.buttons = make(map[buttonBinding]string)

	const mask = xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease | xproto.EventMaskButtonMotion

	var failed []string
	for _, combo := range combos {
		mods, button, err := mousebind.ParseString(b.xu, combo)
		if err != nil {
			b.logger.Warn("cannot parse button binding", "combo", combo, "error", err)
			failed = append(failed, combo)
			continue
		}
		for _, m := range xevent.IgnoreMods {
			err = xproto.GrabButtonChecked(b.xu.Conn(), false, b.root, mask,
				xproto.GrabModeAsync, xproto.GrabModeAsync, xproto.WindowNone, xproto.CursorNone,
				byte(button), mods|m).Check()
			if err != nil {
				break
			}
		}
		if err != nil {
			b.logger.Warn("button grab failed", "combo", combo, "error", err)
			failed = append(failed, combo)
			continue
		}
		b.buttons[buttonBinding{mods: mods, button: button}] = combo
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to bind buttons: %s", strings.Join(failed, ", "))
	}
	return nil
}

// KeyCombo returns the combo bound to a key press with the given state.
func (b *Binder) KeyCombo(state uint16, code xproto.Keycode) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	combo, ok := b.keys[keyBinding{mods: b.clean(state), code: code}]
	return combo, ok
}

// ButtonCombo returns the combo bound to a button press with the given state.
func (b *Binder) ButtonCombo(state uint16, button xproto.Button) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	combo, ok := b.buttons[buttonBinding{mods: b.clean(state), button: button}]
	return combo, ok
}

// DescribeState names the modifiers in state, for logging unbound presses.
func (b *Binder) DescribeState(state uint16) string {
	return strings.Join(ModifierNames(b.clean(state)), "-")
}

// clean drops lock modifiers and pointer button bits from state.
func (b *Binder) clean(state uint16) uint16 {
	const buttonBits = xproto.KeyButMaskButton1 | xproto.KeyButMaskButton2 |
		xproto.KeyButMaskButton3 | xproto.KeyButMaskButton4 | xproto.KeyButMaskButton5
	return state &^ (b.ignore | buttonBits)
}

// configureIgnoreMods makes xevent treat every combination of the lock
// modifiers as irrelevant, so bindings fire with CapsLock or NumLock on.
func configureIgnoreMods(xu *xgbutil.XUtil) {
	locks := []uint16{uint16(xproto.ModMaskLock)}
	for _, sym := range []string{"Num_Lock", "Scroll_Lock"} {
		if m := lockMask(xu, sym); m != 0 && !slices.Contains(locks, m) {
			locks = append(locks, m)
		}
	}
	combos := []uint16{0}
	for _, l := range locks {
		for _, c := range combos {
			combos = append(combos, c|l)
		}
	}
	xevent.IgnoreMods = combos
}

// lockMask returns the modifier bit the server maps keysym to, or 0.
func lockMask(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, code := range keybind.StrToKeycodes(xu, keysym) {
		if m := keybind.ModGet(xu, code); m != 0 {
			return m
		}
	}
	return 0
}
