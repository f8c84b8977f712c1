package root

import (
	"flag"

	"github.com/brimdata/iql/cli"
	"github.com/brimdata/iql/pkg/charm"
)

var IQL = &charm.Spec{
	Name:  "iql",
	Usage: "iql <command> [options] [arguments...]",
	Short: "run grouped aggregation queries",
	Long: `
iql runs compiled command lists against datasets.  Each command
repartitions the documents of every dataset into groups, filters them or
emits one row per group, so a list of commands computes a nested
group-by.  Rows are written as tab-separated values.`,
	New: New,
}

type Command struct {
	charm.Command
	cli.Flags
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{}
	c.SetFlags(f)
	return c, nil
}

func (c *Command) Run(args []string) error {
	_, cancel, err := c.Init()
	if err != nil {
		return err
	}
	defer cancel()
	if len(args) == 0 {
		return charm.NeedHelp
	}
	return charm.ErrNoRun
}
