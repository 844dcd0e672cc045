package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/workspace"
)

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  tilewm config validate [--config PATH]")
		fmt.Fprintln(os.Stderr, "  tilewm config print [--config PATH] [--defaults]")
		fmt.Fprintln(os.Stderr, "  tilewm config path")
		fmt.Fprintln(os.Stderr, "  tilewm config explain [--config PATH] <yaml.path>")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("config", "", "Config file path (default: ~/.config/tilewm/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, w := range res.Config.Warnings() {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("config", "", "Config file path (default: ~/.config/tilewm/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			cfg = res.Config
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "path":
		path, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(path)
		return 0

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("config", "", "Config file path (default: ~/.config/tilewm/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}

func printSnapshotUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  tilewm snapshot save [name]")
	fmt.Fprintln(os.Stderr, "  tilewm snapshot list")
	fmt.Fprintln(os.Stderr, "  tilewm snapshot delete <name>")
}

func runSnapshot(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printSnapshotUsage()
		return 2
	}

	switch args[0] {
	case "save":
		if len(args) > 2 {
			printSnapshotUsage()
			return 2
		}
		name := ""
		if len(args) == 2 {
			name = args[1]
			if err := workspace.ValidateSnapshotName(name); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 2
			}
		}
		saved, err := ipc.NewClient().SaveSnapshot(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("saved snapshot %q\n", saved)
		return 0

	case "list":
		store, err := workspace.DefaultStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		names, err := store.List()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return 0

	case "delete":
		if len(args) != 2 {
			printSnapshotUsage()
			return 2
		}
		store, err := workspace.DefaultStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := store.Delete(args[1]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("deleted snapshot %q\n", args[1])
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown snapshot subcommand: %s\n", args[0])
		return 2
	}
}
