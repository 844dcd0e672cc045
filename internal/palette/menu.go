package palette

import (
	"fmt"
	"strings"

	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/wm"
)

// BuildMenu lists the workspaces, the actions on the focused client and
// the layouts, each carrying the command line it runs.
func BuildMenu(st *wm.State, layouts []string) []Item {
	items := []Item{{Label: "Workspaces", IsHeader: true}}
	for _, ws := range st.Workspaces {
		label := ws.Name
		if n := len(ws.Tiled) + len(ws.Floating); n > 0 {
			label = fmt.Sprintf("%s (%d)", ws.Name, n)
		}
		items = append(items, Item{
			Label:    label,
			Action:   hotkeys.ActionGoto + " " + ws.Name,
			Icon:     "user-desktop",
			IsActive: ws.Name == st.FocusedWorkspace,
		})
	}

	if st.FocusedClient != 0 {
		title := fmt.Sprintf("%#x", uint32(st.FocusedClient))
		for _, c := range st.Clients {
			if c.ID == st.FocusedClient && c.Class != "" {
				title = c.Class
			}
		}
		items = append(items,
			Item{Label: "Window: " + title, IsHeader: true},
			Item{Label: "Toggle floating", Action: hotkeys.ActionToggleFloating, Icon: "window-new"},
			Item{Label: "Toggle fullscreen", Action: hotkeys.ActionFullscreen, Icon: "view-fullscreen"},
			Item{Label: "Close", Action: hotkeys.ActionClose, Icon: "window-close"},
		)
		for _, ws := range st.Workspaces {
			if ws.Name == st.FocusedWorkspace {
				continue
			}
			items = append(items, Item{
				Label:  "Send to " + ws.Name,
				Action: hotkeys.ActionSendTo + " " + ws.Name,
				Icon:   "go-jump",
			})
		}
	}

	current := ""
	for _, ws := range st.Workspaces {
		if ws.Name == st.FocusedWorkspace {
			current = ws.Layout
		}
	}
	items = append(items, Item{Label: "Layouts", IsHeader: true})
	for _, name := range layouts {
		items = append(items, Item{
			Label:    name,
			Action:   hotkeys.ActionLayout + " " + name,
			Icon:     "view-grid",
			IsActive: name == current,
		})
	}
	return items
}

// Choose shows items and parses the chosen row's command line.
func Choose(b Backend, prompt string, items []Item) (hotkeys.Action, error) {
	item, err := b.Show(prompt, items)
	if err != nil {
		return hotkeys.Action{}, err
	}
	if strings.TrimSpace(item.Action) == "" {
		return hotkeys.Action{}, ErrCancelled
	}
	return hotkeys.ParseAction(item.Action)
}
