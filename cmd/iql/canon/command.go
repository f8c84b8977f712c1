package canon

import (
	"errors"
	"flag"
	"os"

	"github.com/brimdata/iql/cli/queryflags"
	"github.com/brimdata/iql/cmd/iql/root"
	"github.com/brimdata/iql/command"
	"github.com/brimdata/iql/pkg/charm"
)

var Cmd = &charm.Spec{
	Name:  "canon",
	Usage: "canon query.yaml",
	Short: "print the canonical form of a command list",
	Long: `
The canon command decodes a command list and prints it in the canonical
form the result cache hashes.  Two command lists with the same canonical
form share cached results.`,
	New: New,
}

type Command struct {
	*root.Command
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	return &Command{Command: parent.(*root.Command)}, nil
}

func (c *Command) Run(args []string) error {
	_, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) != 1 {
		return errors.New("canon: a single query file is required")
	}
	cmds, err := queryflags.Load(args[0])
	if err != nil {
		return err
	}
	b, err := command.Canonical(cmds)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(b)
	return err
}
