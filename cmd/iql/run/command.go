package run

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/brimdata/iql/cli/inputflags"
	"github.com/brimdata/iql/cli/outputflags"
	"github.com/brimdata/iql/cli/queryflags"
	"github.com/brimdata/iql/cmd/iql/root"
	"github.com/brimdata/iql/command"
	"github.com/brimdata/iql/pkg/charm"
	"github.com/brimdata/iql/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

var Cmd = &charm.Spec{
	Name:  "run",
	Usage: "run [options] query.yaml",
	Short: "run a command list against a dataset fixture",
	Long: `
The run command decodes the command list in the given file ("-" for
standard input) and runs it against the datasets of the -fixture file,
restricted to the time range given by -from and -to.  Rows are written to
standard output or the -o file as tab-separated values: the group key
columns followed by one column per metric.

Results are kept in the result cache selected by -resultcache.kind, so
running the same command list over the same datasets again reads the rows
from the cache.`,
	New: New,
}

type Command struct {
	*root.Command
	inputFlags  inputflags.Flags
	outputFlags outputflags.Flags
	stats       bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	c.inputFlags.SetFlags(f)
	c.outputFlags.SetFlags(f)
	f.BoolVar(&c.stats, "s", false, "display query stats on stderr")
	return c, nil
}

func (c *Command) Run(args []string) (err error) {
	ctx, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) != 1 {
		return errors.New("run: a single query file is required")
	}
	cmds, err := queryflags.Load(args[0])
	if err != nil {
		return err
	}
	conf := c.Config()
	logger, err := c.Log.Open()
	if err != nil {
		return err
	}
	defer logger.Sync()
	loc, err := conf.Query.Location()
	if err != nil {
		return err
	}
	sess, err := c.inputFlags.Open(loc)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, sess.Close())
	}()
	reg := prometheus.NewRegistry()
	cache, err := c.Cache.Open(reg)
	if err != nil {
		return err
	}
	w, err := c.outputFlags.Open()
	if err != nil {
		return err
	}
	pipeline := command.NewPipeline(logger.Named("command"), command.NewMetrics(reg))
	runner := runtime.NewRunner(pipeline, cache, logger.Named("runtime"), runtime.Config{
		Timeout:  conf.Query.Timeout,
		RowLimit: conf.Query.RowLimit,
	})
	result, err := runner.Run(ctx, sess, cmds, w)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if result.Truncated {
		fmt.Fprintf(os.Stderr, "output truncated at %d rows\n", result.Rows)
	}
	if c.stats {
		if result.Cached {
			fmt.Fprintf(os.Stderr, "query %s: rows=%d cached\n", result.ID, result.Rows)
		} else {
			fmt.Fprintf(os.Stderr, "query %s: rows=%d depth=%d groups=%d\n",
				result.ID, result.Rows, result.State.Depth(), result.State.NumGroups())
		}
	}
	return nil
}
