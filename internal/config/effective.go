package config

import (
	"fmt"
	"strings"

	"github.com/1broseidon/tilewm/internal/hotkeys"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig overlays raw onto DefaultConfig. Keybind combos are
// normalized so "super+Return" overrides the default "Mod4-Return"; an
// empty command removes a default binding.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if raw.Workspaces != nil {
		cfg.Workspaces = append([]string(nil), raw.Workspaces...)
	}
	if raw.ScreenWorkspaces != nil {
		cfg.ScreenWorkspaces = append([]string(nil), raw.ScreenWorkspaces...)
	}
	if raw.Layout != nil {
		cfg.Layout = *raw.Layout
	}
	if raw.Layouts != nil {
		cfg.Layouts = append([]string(nil), raw.Layouts...)
	}
	if raw.MasterRatio != nil {
		cfg.MasterRatio = *raw.MasterRatio
	}
	if raw.GapSize != nil {
		cfg.GapSize = *raw.GapSize
	}
	if raw.BorderWidth != nil {
		cfg.BorderWidth = *raw.BorderWidth
	}
	if raw.BorderFocused != nil {
		cfg.BorderFocused = strings.ToLower(strings.TrimSpace(*raw.BorderFocused))
	}
	if raw.BorderUnfocused != nil {
		cfg.BorderUnfocused = strings.ToLower(strings.TrimSpace(*raw.BorderUnfocused))
	}
	if raw.FocusFollowsPointer != nil {
		cfg.FocusFollowsPointer = *raw.FocusFollowsPointer
	}
	if raw.FloatTransients != nil {
		cfg.FloatTransients = *raw.FloatTransients
	}
	if raw.FloatClasses != nil {
		cfg.FloatClasses = append([]string(nil), raw.FloatClasses...)
	}
	if raw.SendFocusPolicy != nil {
		cfg.SendFocusPolicy = strings.ToLower(strings.TrimSpace(*raw.SendFocusPolicy))
	}
	if raw.WarpStep != nil {
		cfg.WarpStep = *raw.WarpStep
	}

	if raw.Autostart != nil {
		cfg.Autostart = append([]string(nil), raw.Autostart...)
	}

	if raw.Keybinds != nil {
		binds, err := mergeKeybinds(cfg.Keybinds, raw.Keybinds)
		if err != nil {
			return nil, err
		}
		cfg.Keybinds = binds
	}

	if m := raw.Mousebinds; m != nil {
		if m.Move != nil {
			combo, err := normalizeOptionalCombo(*m.Move)
			if err != nil {
				return nil, &ValidationError{Path: "mousebinds.move", Err: err}
			}
			cfg.Mousebinds.Move = combo
		}
		if m.Resize != nil {
			combo, err := normalizeOptionalCombo(*m.Resize)
			if err != nil {
				return nil, &ValidationError{Path: "mousebinds.resize", Err: err}
			}
			cfg.Mousebinds.Resize = combo
		}
	}

	if s := raw.Snapshot; s != nil {
		if s.Enabled != nil {
			cfg.Snapshot.Enabled = *s.Enabled
		}
		if s.Name != nil {
			cfg.Snapshot.Name = *s.Name
		}
		if s.AutosaveInterval != nil {
			cfg.Snapshot.AutosaveInterval = *s.AutosaveInterval
		}
		if s.RestoreOnStart != nil {
			cfg.Snapshot.RestoreOnStart = *s.RestoreOnStart
		}
	}
	if raw.API != nil && raw.API.Listen != nil {
		cfg.API.Listen = *raw.API.Listen
	}
	if l := raw.Logging; l != nil {
		if l.Level != nil {
			cfg.Logging.Level = *l.Level
		}
		if l.Format != nil {
			cfg.Logging.Format = *l.Format
		}
	}

	return cfg, nil
}

func mergeKeybinds(base map[string]string, overlay map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(base)+len(overlay))
	for combo, line := range base {
		out[combo] = line
	}
	for combo, line := range overlay {
		norm, err := hotkeys.NormalizeCombo(combo)
		if err != nil {
			return nil, &ValidationError{Path: "keybinds." + combo, Err: err}
		}
		line = strings.TrimSpace(line)
		if line == "" {
			delete(out, norm)
			continue
		}
		out[norm] = line
	}
	return out, nil
}

func normalizeOptionalCombo(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return hotkeys.NormalizeCombo(s)
}
