package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Paths follow the file layout, for example:
//
//	layout
//	master_ratio
//	workspaces.0
//	keybinds.Mod4-Return
//	snapshot.autosave_interval
//	logging.level
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins, then the nearest parent that a file set.
	for p := path; p != ""; p = parentPath(p) {
		if src, ok := res.Sources[p]; ok {
			return value, src, nil
		}
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func parentPath(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return ""
	}
	return path[:i]
}

func lookupValue(cfg *Config, path string) (any, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	node := &doc
	for _, part := range strings.Split(path, ".") {
		next, err := child(node, part)
		if err != nil {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		node = next
	}

	var value any
	if err := node.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func child(node *yaml.Node, key string) (*yaml.Node, error) {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				return node.Content[i+1], nil
			}
		}
	case yaml.SequenceNode:
		idx, err := strconv.Atoi(key)
		if err == nil && idx >= 0 && idx < len(node.Content) {
			return node.Content[idx], nil
		}
	}
	return nil, fmt.Errorf("no %q under node", key)
}
