package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tilewm/internal/hotkeys"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawMousebinds struct {
	Move   *string `yaml:"move"`
	Resize *string `yaml:"resize"`
}

type RawSnapshot struct {
	Enabled          *bool          `yaml:"enabled"`
	Name             *string        `yaml:"name"`
	AutosaveInterval *time.Duration `yaml:"autosave_interval"`
	RestoreOnStart   *bool          `yaml:"restore_on_start"`
}

type RawAPI struct {
	Listen *string `yaml:"listen"`
}

type RawLogging struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

// RawConfig mirrors one config file. Pointer fields distinguish "absent"
// from the zero value so later files only override what they set.
type RawConfig struct {
	Include             IncludeList       `yaml:"include"`
	Display             *string           `yaml:"display"`
	XAuthority          *string           `yaml:"xauthority"`
	Workspaces          []string          `yaml:"workspaces"`
	ScreenWorkspaces    []string          `yaml:"screen_workspaces"`
	Layout              *string           `yaml:"layout"`
	Layouts             []string          `yaml:"layouts"`
	MasterRatio         *float64          `yaml:"master_ratio"`
	GapSize             *int              `yaml:"gap_size"`
	BorderWidth         *int              `yaml:"border_width"`
	BorderFocused       *string           `yaml:"border_focused"`
	BorderUnfocused     *string           `yaml:"border_unfocused"`
	FocusFollowsPointer *bool             `yaml:"focus_follows_pointer"`
	FloatTransients     *bool             `yaml:"float_transients"`
	FloatClasses        []string          `yaml:"float_classes"`
	SendFocusPolicy     *string           `yaml:"send_focus_policy"`
	WarpStep            *int              `yaml:"warp_step"`
	Autostart           []string          `yaml:"autostart"`
	Keybinds            map[string]string `yaml:"keybinds"`
	Mousebinds          *RawMousebinds    `yaml:"mousebinds"`
	Snapshot            *RawSnapshot      `yaml:"snapshot"`
	API                 *RawAPI           `yaml:"api"`
	Logging             *RawLogging       `yaml:"logging"`
}

// merge overlays o onto r. Lists replace, keybinds merge per combo.
func (r RawConfig) merge(o RawConfig) RawConfig {
	out := r
	out.Include = nil

	if o.Display != nil {
		out.Display = o.Display
	}
	if o.XAuthority != nil {
		out.XAuthority = o.XAuthority
	}
	if o.Workspaces != nil {
		out.Workspaces = o.Workspaces
	}
	if o.ScreenWorkspaces != nil {
		out.ScreenWorkspaces = o.ScreenWorkspaces
	}
	if o.Layout != nil {
		out.Layout = o.Layout
	}
	if o.Layouts != nil {
		out.Layouts = o.Layouts
	}
	if o.MasterRatio != nil {
		out.MasterRatio = o.MasterRatio
	}
	if o.GapSize != nil {
		out.GapSize = o.GapSize
	}
	if o.BorderWidth != nil {
		out.BorderWidth = o.BorderWidth
	}
	if o.BorderFocused != nil {
		out.BorderFocused = o.BorderFocused
	}
	if o.BorderUnfocused != nil {
		out.BorderUnfocused = o.BorderUnfocused
	}
	if o.FocusFollowsPointer != nil {
		out.FocusFollowsPointer = o.FocusFollowsPointer
	}
	if o.FloatTransients != nil {
		out.FloatTransients = o.FloatTransients
	}
	if o.FloatClasses != nil {
		out.FloatClasses = o.FloatClasses
	}
	if o.SendFocusPolicy != nil {
		out.SendFocusPolicy = o.SendFocusPolicy
	}
	if o.WarpStep != nil {
		out.WarpStep = o.WarpStep
	}
	if o.Autostart != nil {
		out.Autostart = o.Autostart
	}
	if o.Keybinds != nil {
		merged := make(map[string]string, len(r.Keybinds)+len(o.Keybinds))
		for k, v := range r.Keybinds {
			merged[comboKey(k)] = v
		}
		for k, v := range o.Keybinds {
			merged[comboKey(k)] = v
		}
		out.Keybinds = merged
	}

	if o.Mousebinds != nil {
		m := RawMousebinds{}
		if r.Mousebinds != nil {
			m = *r.Mousebinds
		}
		if o.Mousebinds.Move != nil {
			m.Move = o.Mousebinds.Move
		}
		if o.Mousebinds.Resize != nil {
			m.Resize = o.Mousebinds.Resize
		}
		out.Mousebinds = &m
	}
	if o.Snapshot != nil {
		s := RawSnapshot{}
		if r.Snapshot != nil {
			s = *r.Snapshot
		}
		if o.Snapshot.Enabled != nil {
			s.Enabled = o.Snapshot.Enabled
		}
		if o.Snapshot.Name != nil {
			s.Name = o.Snapshot.Name
		}
		if o.Snapshot.AutosaveInterval != nil {
			s.AutosaveInterval = o.Snapshot.AutosaveInterval
		}
		if o.Snapshot.RestoreOnStart != nil {
			s.RestoreOnStart = o.Snapshot.RestoreOnStart
		}
		out.Snapshot = &s
	}
	if o.API != nil {
		a := RawAPI{}
		if r.API != nil {
			a = *r.API
		}
		if o.API.Listen != nil {
			a.Listen = o.API.Listen
		}
		out.API = &a
	}
	if o.Logging != nil {
		l := RawLogging{}
		if r.Logging != nil {
			l = *r.Logging
		}
		if o.Logging.Level != nil {
			l.Level = o.Logging.Level
		}
		if o.Logging.Format != nil {
			l.Format = o.Logging.Format
		}
		out.Logging = &l
	}
	return out
}

// comboKey normalizes a combo for merging, leaving unparsable keys as they
// are so BuildEffectiveConfig can report them.
func comboKey(combo string) string {
	if norm, err := hotkeys.NormalizeCombo(combo); err == nil {
		return norm
	}
	return combo
}
