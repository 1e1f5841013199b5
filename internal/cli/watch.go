package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrlokans/docconv/internal/config"
	"github.com/mrlokans/docconv/internal/entities"
	"github.com/mrlokans/docconv/internal/pipeline"
	"github.com/mrlokans/docconv/internal/watcher"
)

// WatchCommand converts once, then re-runs whenever a source file changes.
type WatchCommand struct {
	pipelineOptions
	Debounce time.Duration

	defaultDebounce time.Duration
	out             io.Writer
}

// NewWatchCommand creates the command. The debounce flag defaults to
// WATCH_DEBOUNCE from the environment.
func NewWatchCommand() *WatchCommand {
	return &WatchCommand{
		out:             os.Stdout,
		defaultDebounce: config.NewConfig().Watch.Debounce,
	}
}

func (cmd *WatchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)

	cmd.register(fs)
	debounce := cmd.defaultDebounce
	if debounce <= 0 {
		debounce = watcher.DefaultDebounce
	}
	fs.DurationVar(&cmd.Debounce, "debounce", debounce, "Quiet period after the last write before re-running")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s watch [-pipeline <name>] [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Convert, then re-convert whenever the source CSV changes. Without\n")
		fmt.Fprintf(os.Stderr, "-pipeline every pipeline with a source is watched. Stop with Ctrl+C.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.InputPath != "" && cmd.Pipeline == "" {
		return fmt.Errorf("-input requires -pipeline")
	}
	return nil
}

func (cmd *WatchCommand) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cmd.run(ctx)
}

func (cmd *WatchCommand) run(ctx context.Context) error {
	p, closeFn, err := cmd.open()
	if err != nil {
		return err
	}
	defer closeFn()

	names := p.Sourced()
	if cmd.Pipeline != "" {
		if _, err := p.Registry().Get(cmd.Pipeline); err != nil {
			return err
		}
		names = []string{cmd.Pipeline}
	}
	if len(names) == 0 {
		return fmt.Errorf("no pipeline has a source to watch (use -pipeline and -input)")
	}

	run := func(ctx context.Context, name string, trigger entities.RunTrigger) error {
		summary, err := p.Run(ctx, pipeline.Request{Pipeline: name, Trigger: trigger})
		if err != nil {
			return err
		}
		if cmd.Verbose {
			log.Printf("[WATCH] %s: %d rows -> %d parents, %d children", name, summary.RowsRead, summary.Parents, summary.Children)
		}
		return nil
	}

	w, err := watcher.NewSourceWatcher(func(ctx context.Context, name string) error {
		return run(ctx, name, entities.RunTriggerWatcher)
	}, cmd.Debounce)
	if err != nil {
		return err
	}

	for _, name := range names {
		def, _ := p.Registry().Get(name)
		if def.Source == "" {
			return fmt.Errorf("pipeline %s: %w", name, pipeline.ErrNoSource)
		}
		if err := w.Add(name, def.Source); err != nil {
			return err
		}
	}

	// A failing first run is not fatal: fixing the file triggers the next one.
	for _, name := range names {
		if err := run(ctx, name, entities.RunTriggerCLI); err != nil {
			log.Printf("[WATCH] %s: initial run failed: %v", name, err)
		}
	}

	fmt.Fprintf(cmd.out, "Watching %d source file(s), press Ctrl+C to stop\n", w.Watched())
	return w.Run(ctx)
}
