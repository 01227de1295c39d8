package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/stockfolio/docs"
	"github.com/google/subcommands"
)

// topicCmd prints pages of the user manual.
type topicCmd struct {
	list bool
	raw  bool

	out    io.Writer
	errOut io.Writer
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show the user manual" }
func (*topicCmd) Usage() string {
	return `folio topic [-list] [-raw] [<topic>...]

  Shows the manual pages for the given topics, "*" for all of them, the
  readme when none is given.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "list the available topics")
	f.BoolVar(&c.raw, "raw", false, "print the markdown source instead of rendering it")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.errOut == nil {
		c.errOut = os.Stderr
	}
	if err := c.run(f.Args()); err != nil {
		fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *topicCmd) run(topics []string) error {
	all, err := docs.GetAllTopics()
	if err != nil {
		return err
	}
	if c.list {
		_, err := fmt.Fprintln(c.out, strings.Join(all, "\n"))
		return err
	}

	if len(topics) == 0 {
		topics = []string{"readme"}
	}
	doc, err := docs.GetTopics(topics...)
	if err != nil {
		return fmt.Errorf("%w\navailable topics: %s", err, strings.Join(all, ", "))
	}
	if c.raw {
		_, err := io.WriteString(c.out, doc)
		return err
	}
	return printMarkdown(c.out, doc)
}
