package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrlokans/docconv/internal/entities"
	"github.com/mrlokans/docconv/internal/pipeline"
)

// ConvertCommand runs one pipeline and writes its collections.
type ConvertCommand struct {
	pipelineOptions
	DryRun bool

	out io.Writer
}

func NewConvertCommand() *ConvertCommand {
	return &ConvertCommand{out: os.Stdout}
}

func (cmd *ConvertCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)

	cmd.register(fs)
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Convert without writing any output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s convert -pipeline <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Convert a CSV file into a parent and a child JSON collection.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Convert the hotel reviews dataset:\n")
		fmt.Fprintf(os.Stderr, "  %s convert -pipeline hotels -input Hotel_Reviews.csv\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Check a bank export for conflicting customer rows:\n")
		fmt.Fprintf(os.Stderr, "  %s convert -pipeline bank -input bank.csv -duplicates strict -dry-run\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Pipeline == "" {
		return fmt.Errorf("required flag -pipeline not provided")
	}
	return nil
}

func (cmd *ConvertCommand) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cmd.run(ctx)
}

func (cmd *ConvertCommand) run(ctx context.Context) error {
	fmt.Fprintln(cmd.out, "Convert")
	fmt.Fprintln(cmd.out, "=======")

	if cmd.DryRun {
		fmt.Fprintln(cmd.out, "DRY RUN MODE - No files will be written")
		fmt.Fprintln(cmd.out)
	}

	p, closeFn, err := cmd.open()
	if err != nil {
		return err
	}
	defer closeFn()

	def, err := p.Registry().Get(cmd.Pipeline)
	if err != nil {
		return err
	}
	if cmd.Verbose {
		fmt.Fprintf(cmd.out, "Pipeline: %s (%s -> %s via %s)\n",
			def.Name, def.Parent.Collection, def.Child.Collection, def.Child.Reference)
	}

	summary, err := p.Run(ctx, pipeline.Request{
		Pipeline: cmd.Pipeline,
		Trigger:  entities.RunTriggerCLI,
		DryRun:   cmd.DryRun,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrNoSource) {
			return fmt.Errorf("%w (use -input)", err)
		}
		return err
	}

	fmt.Fprintf(cmd.out, "Source: %s\n", summary.SourcePath)
	fmt.Fprintf(cmd.out, "Read %d rows\n", summary.RowsRead)
	fmt.Fprintf(cmd.out, "  %-14s %d documents\n", def.Parent.Collection, summary.Parents)
	fmt.Fprintf(cmd.out, "  %-14s %d documents\n", def.Child.Collection, summary.Children)

	for _, exp := range summary.Exports {
		fmt.Fprintf(cmd.out, "Wrote %s\n", exp.Target)
		if cmd.Verbose {
			for _, f := range exp.Files {
				fmt.Fprintf(cmd.out, "  %s\n", f)
			}
		}
	}

	if cmd.DryRun {
		fmt.Fprintln(cmd.out, "\nDry run complete. Use without -dry-run to write the collections.")
		return nil
	}
	fmt.Fprintf(cmd.out, "\nDone in %v (run %s)\n", summary.Duration.Round(time.Millisecond), summary.RunID)
	return nil
}
