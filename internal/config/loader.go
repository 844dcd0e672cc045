package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tilewm/internal/runtimepath"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

type Source struct {
	Kind   SourceKind
	Name   string // for defaults
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // YAML-path -> last writer source (file only)
	Files   []string          // all loaded files, in load order
}

// DefaultConfigPath returns ~/.config/tilewm/config.yaml, honouring
// XDG_CONFIG_HOME.
func DefaultConfigPath() (string, error) {
	dir, err := runtimepath.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the merged configuration from the standard location and returns an
// effective config ready for use by the manager.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources loads config and returns file-level sources for introspection.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and its includes on top of the defaults. A missing
// file yields the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	res := &LoadResult{Sources: map[string]Source{}}
	raw := RawConfig{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		l := &fileLoader{seen: make(map[string]bool)}
		if raw, err = l.load(path, res.Sources); err != nil {
			return nil, err
		}
		res.Files = l.files
	case !os.IsNotExist(err):
		return nil, err
	}

	cfg, err := BuildEffectiveConfig(raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			if src, ok := res.Sources[verr.Path]; ok {
				verr.Source = src
			}
		}
		return nil, err
	}
	res.Config = cfg
	return res, nil
}

// fileLoader reads a config file and the files it includes. Included files
// are applied first so the including file wins; a file reached twice is
// read once.
type fileLoader struct {
	seen  map[string]bool
	stack []string
	files []string
}

func (l *fileLoader) load(path string, sources map[string]Source) (RawConfig, error) {
	file, err := canonicalPath(path)
	if err != nil {
		return RawConfig{}, err
	}
	if slices.Contains(l.stack, file) {
		chain := append(slices.Clone(l.stack), file)
		return RawConfig{}, fmt.Errorf("include cycle detected: %s", strings.Join(chain, " -> "))
	}
	if l.seen[file] {
		return RawConfig{}, nil
	}
	l.seen[file] = true

	data, err := os.ReadFile(file)
	if err != nil {
		return RawConfig{}, fmt.Errorf("%s: failed to read: %w", file, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RawConfig{}, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	var own RawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&own); err != nil && !errors.Is(err, io.EOF) {
		return RawConfig{}, fmt.Errorf("%s: %w", file, err)
	}

	root := rootMapping(&doc)
	merged := RawConfig{}
	l.stack = append(l.stack, file)
	for _, inc := range includeNodes(root) {
		paths, err := expandInclude(file, inc.Value)
		if err != nil {
			return RawConfig{}, fmt.Errorf("%s:%d:%d: include %q: %w", file, inc.Line, inc.Column, inc.Value, err)
		}
		for _, p := range paths {
			incRaw, err := l.load(p, sources)
			if err != nil {
				return RawConfig{}, err
			}
			merged = merged.merge(incRaw)
		}
	}
	l.stack = l.stack[:len(l.stack)-1]

	recordSources(root, file, "", sources)
	l.files = append(l.files, file)
	return merged.merge(own), nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}

// expandInclude resolves an include entry against the including file. A
// directory expands to its *.yaml and *.yml files in name order.
func expandInclude(from, include string) ([]string, error) {
	if include == "" {
		return nil, fmt.Errorf("path is empty")
	}
	if include == "~" || strings.HasPrefix(include, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		include = filepath.Join(home, strings.TrimPrefix(include, "~"))
	}
	if !filepath.IsAbs(include) {
		include = filepath.Join(filepath.Dir(from), include)
	}

	info, err := os.Stat(include)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{include}, nil
	}
	entries, err := os.ReadDir(include)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			out = append(out, filepath.Join(include, e.Name()))
		}
	}
	slices.Sort(out)
	return out, nil
}

func rootMapping(doc *yaml.Node) *yaml.Node {
	node := doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	return node
}

// includeNodes returns the scalar entries of the top-level include key.
func includeNodes(root *yaml.Node) []*yaml.Node {
	if root == nil {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "include" {
			continue
		}
		val := root.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			return []*yaml.Node{val}
		case yaml.SequenceNode:
			var out []*yaml.Node
			for _, item := range val.Content {
				if item.Kind == yaml.ScalarNode {
					out = append(out, item)
				}
			}
			return out
		}
		return nil
	}
	return nil
}

// recordSources stores the position of every mapping value under its
// dotted path. Sequences are recorded as a whole.
func recordSources(node *yaml.Node, file, prefix string, out map[string]Source) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		path := node.Content[i].Value
		if prefix != "" {
			path = prefix + "." + path
		}
		val := node.Content[i+1]
		out[path] = Source{Kind: SourceFile, File: file, Line: val.Line, Column: val.Column}
		recordSources(val, file, path, out)
	}
}
