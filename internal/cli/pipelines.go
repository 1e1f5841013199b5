package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mrlokans/docconv/internal/converter"
)

// PipelinesCommand lists the available pipeline definitions.
type PipelinesCommand struct {
	DefinitionsFile string
	Verbose         bool

	out io.Writer
}

func NewPipelinesCommand() *PipelinesCommand {
	return &PipelinesCommand{out: os.Stdout}
}

func (cmd *PipelinesCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("pipelines", flag.ContinueOnError)
	fs.StringVar(&cmd.DefinitionsFile, "definitions", "", "YAML file with additional pipeline definitions")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Show key and id columns")
	return fs.Parse(args)
}

func (cmd *PipelinesCommand) Run() error {
	registry := converter.NewRegistry()
	if cmd.DefinitionsFile != "" {
		if err := registry.RegisterFile(cmd.DefinitionsFile); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(cmd.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPARENTS\tCHILDREN\tREFERENCE\tSOURCE")
	for _, def := range registry.All() {
		source := def.Source
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			def.Name, def.Parent.Collection, def.Child.Collection, def.Child.Reference, source)
		if cmd.Verbose {
			fmt.Fprintf(tw, "\tkey: %s\tid: %s\t\t\n",
				strings.Join(def.Parent.Key, ", "), strings.Join(def.Child.IDColumns, ", "))
		}
	}
	return tw.Flush()
}
