package palette

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

// commandBackend pipes rows into rofi -dmenu or dmenu. rofi reports the
// chosen row index; dmenu echoes the label back.
type commandBackend struct {
	command string
	rofi    bool
	run     func(name string, args []string, stdin string) (string, error)
}

func newCommandBackend(command string) *commandBackend {
	return &commandBackend{command: command, rofi: command == "rofi", run: runMenu}
}

func runMenu(name string, args []string, stdin string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	selection := strings.TrimSpace(string(out))
	if err != nil {
		var exitErr *exec.ExitError
		// 1 is "nothing chosen" for both programs, 130 is Ctrl+C.
		if errors.As(err, &exitErr) && (exitErr.ExitCode() == 1 || exitErr.ExitCode() == 130) && selection == "" {
			return "", ErrCancelled
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s failed: %s", name, msg)
		}
		return "", fmt.Errorf("%s failed: %w", name, err)
	}
	return selection, nil
}

func (b *commandBackend) Show(prompt string, items []Item) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}
	for {
		selection, err := b.run(b.command, b.args(prompt, items), b.input(items))
		if err != nil {
			return Item{}, err
		}
		if selection == "" {
			return Item{}, ErrCancelled
		}
		item, err := b.parseSelection(selection, items)
		if err != nil {
			return Item{}, err
		}
		// dmenu cannot disable header rows.
		if !item.IsHeader {
			return item, nil
		}
	}
}

func (b *commandBackend) args(prompt string, items []Item) []string {
	if !b.rofi {
		args := []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		return args
	}

	args := []string{"-dmenu", "-i", "-format", "i", "-no-custom", "-markup-rows", "-show-icons"}
	if prompt != "" {
		args = append(args, "-p", prompt)
	}
	var active []string
	for i, item := range items {
		if item.IsActive && !item.IsHeader {
			active = append(active, strconv.Itoa(i))
		}
	}
	if len(active) > 0 {
		args = append(args, "-a", strings.Join(active, ","), "-selected-row", active[0])
	}
	return args
}

func (b *commandBackend) input(items []Item) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = b.row(item)
	}
	return strings.Join(lines, "\n")
}

// row renders one line. rofi row options follow a single NUL and are
// separated by \x1f.
func (b *commandBackend) row(item Item) string {
	label := cleanLabel(item.Label)
	if !b.rofi {
		return label
	}
	label = html.EscapeString(label)
	var opts []string
	if item.IsHeader {
		label = "<b>" + label + "</b>"
		opts = append(opts, "nonselectable", "true")
	}
	if item.Icon != "" {
		opts = append(opts, "icon", cleanField(item.Icon))
	}
	if len(opts) == 0 {
		return label
	}
	return label + "\x00" + strings.Join(opts, "\x1f")
}

func (b *commandBackend) parseSelection(selection string, items []Item) (Item, error) {
	if b.rofi {
		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 0 || idx >= len(items) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for _, item := range items {
		if cleanLabel(item.Label) == selection {
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
}

func cleanLabel(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(s))
}

func cleanField(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\x00", " ", "\x1f", " ", "\r", " ", "\n", " ").Replace(s))
}
