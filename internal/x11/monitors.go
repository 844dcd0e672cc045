package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
)

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// GetMonitors lists active monitors via RandR, falling back to Xinerama and
// finally to the root window as a single monitor.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if c.hasRandr {
		if monitors, err := c.randrMonitors(); err == nil && len(monitors) > 0 {
			return monitors, nil
		}
	}
	if monitors, err := c.xineramaMonitors(); err == nil && len(monitors) > 0 {
		return monitors, nil
	}

	root, err := c.RootGeometry()
	if err != nil {
		return nil, err
	}
	return []Monitor{{ID: 0, Name: "root", Width: root.Width, Height: root.Height}}, nil
}

func (c *Connection) randrMonitors() ([]Monitor, error) {
	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		m := Monitor{
			ID:     i,
			Name:   outputName,
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		}
		// Mirrored outputs share a CRTC origin; keep the first.
		if !hasOrigin(monitors, m) {
			monitors = append(monitors, m)
		}
	}

	return monitors, nil
}

func (c *Connection) xineramaMonitors() ([]Monitor, error) {
	if err := xinerama.Init(c.XUtil.Conn()); err != nil {
		return nil, err
	}
	reply, err := xinerama.QueryScreens(c.XUtil.Conn()).Reply()
	if err != nil {
		return nil, err
	}
	monitors := make([]Monitor, 0, len(reply.ScreenInfo))
	for i, s := range reply.ScreenInfo {
		m := Monitor{
			ID:     i,
			Name:   fmt.Sprintf("xinerama-%d", i),
			X:      int(s.XOrg),
			Y:      int(s.YOrg),
			Width:  int(s.Width),
			Height: int(s.Height),
		}
		if !hasOrigin(monitors, m) {
			monitors = append(monitors, m)
		}
	}
	return monitors, nil
}

func hasOrigin(monitors []Monitor, m Monitor) bool {
	for _, existing := range monitors {
		if existing.X == m.X && existing.Y == m.Y {
			return true
		}
	}
	return false
}

// Geometry is a window rectangle in root coordinates.
type Geometry struct {
	X, Y          int
	Width, Height int
	BorderWidth   int
}

// RootGeometry returns the size of the root window.
func (c *Connection) RootGeometry() (Geometry, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to get root geometry: %w", err)
	}
	return Geometry{Width: int(geom.Width), Height: int(geom.Height)}, nil
}

// QueryPointer returns the pointer position in root coordinates.
func (c *Connection) QueryPointer() (int, int, error) {
	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, err
	}
	return int(pointer.RootX), int(pointer.RootY), nil
}
