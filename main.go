package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/docconv/internal/cli"
	"github.com/mrlokans/docconv/internal/config"
	"github.com/mrlokans/docconv/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// command is implemented by every CLI sub-command.
type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "convert":
		cmd = cli.NewConvertCommand()
	case "watch":
		cmd = cli.NewWatchCommand()
	case "pipelines":
		cmd = cli.NewPipelinesCommand()
	case "version":
		fmt.Printf("docconv %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve       Start the HTTP API, task queue and scheduler (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  convert     Convert a CSV file into parent and child JSON collections\n")
	fmt.Fprintf(os.Stderr, "  watch       Convert, then re-convert whenever the source CSV changes\n")
	fmt.Fprintf(os.Stderr, "  pipelines   List the available pipeline definitions\n")
	fmt.Fprintf(os.Stderr, "  version     Print version information\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
