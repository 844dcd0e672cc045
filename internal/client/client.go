// Package client holds the per-window record the manager keeps for every
// window it manages.
package client

import (
	"fmt"
	"strings"

	"github.com/1broseidon/tilewm/internal/platform"
)

// Mode is how a client is placed.
type Mode int

const (
	Tiled Mode = iota
	Floating
	Fullscreen
)

func (m Mode) String() string {
	switch m {
	case Tiled:
		return "tiled"
	case Floating:
		return "floating"
	case Fullscreen:
		return "fullscreen"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tiled":
		return Tiled, nil
	case "floating":
		return Floating, nil
	case "fullscreen":
		return Fullscreen, nil
	}
	return Tiled, fmt.Errorf("unknown mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Saved is the state a fullscreen client returns to.
type Saved struct {
	Mode        Mode
	Geometry    platform.Rect
	BorderWidth int
}

// Client is the manager's record of one managed window. Relationships to
// other windows are ids resolved through the manager's registry.
type Client struct {
	ID           platform.WindowID
	Geometry     platform.Rect
	BorderWidth  int
	Mode         Mode
	TransientFor platform.WindowID
	Workspace    int

	Class          string
	Instance       string
	Title          string
	SupportsDelete bool

	saved *Saved
}

// New creates a client record from the queried window properties.
func New(props platform.WindowProperties, mode Mode, workspace int) *Client {
	return &Client{
		ID:             props.ID,
		Geometry:       props.Geometry,
		BorderWidth:    props.BorderWidth,
		Mode:           mode,
		TransientFor:   props.TransientFor,
		Workspace:      workspace,
		Class:          props.Class,
		Instance:       props.Instance,
		Title:          props.Title,
		SupportsDelete: props.SupportsDelete(),
	}
}

// IsTiled reports whether the client takes part in layout.
func (c *Client) IsTiled() bool {
	return c.Mode == Tiled
}

// IsTransient reports whether the client declared a parent window.
func (c *Client) IsTransient() bool {
	return c.TransientFor != 0
}

// EnterFullscreen records the current state and switches to fullscreen
// covering screen. Calling it on a fullscreen client does nothing.
func (c *Client) EnterFullscreen(screen platform.Rect) {
	if c.Mode == Fullscreen {
		return
	}
	c.saved = &Saved{Mode: c.Mode, Geometry: c.Geometry, BorderWidth: c.BorderWidth}
	c.Mode = Fullscreen
	c.Geometry = screen
	c.BorderWidth = 0
}

// ExitFullscreen restores the state saved by EnterFullscreen and returns it.
func (c *Client) ExitFullscreen() (Saved, bool) {
	if c.Mode != Fullscreen || c.saved == nil {
		return Saved{}, false
	}
	s := *c.saved
	c.saved = nil
	c.Mode = s.Mode
	c.Geometry = s.Geometry
	c.BorderWidth = s.BorderWidth
	return s, true
}

// SavedState returns the pre-fullscreen state, if any.
func (c *Client) SavedState() (Saved, bool) {
	if c.saved == nil {
		return Saved{}, false
	}
	return *c.saved, true
}

// Displace moves the client by (dx, dy) and keeps it inside bounds.
// A client larger than bounds is pinned to the bounds origin on that axis.
func (c *Client) Displace(dx, dy int, bounds platform.Rect) {
	c.Geometry.X = clampAxis(c.Geometry.X+dx, c.Geometry.Width+2*c.BorderWidth, bounds.X, bounds.Width)
	c.Geometry.Y = clampAxis(c.Geometry.Y+dy, c.Geometry.Height+2*c.BorderWidth, bounds.Y, bounds.Height)
}

func clampAxis(pos, extent, origin, span int) int {
	if extent >= span {
		return origin
	}
	if pos < origin {
		return origin
	}
	if pos+extent > origin+span {
		return origin + span - extent
	}
	return pos
}

func (c *Client) String() string {
	return fmt.Sprintf("0x%x(%s %s)", uint32(c.ID), c.Class, c.Mode)
}
