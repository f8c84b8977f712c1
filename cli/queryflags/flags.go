package queryflags

import (
	"flag"
	"io"
	"os"

	"github.com/brimdata/iql/command"
	"github.com/brimdata/iql/config"
)

type Flags struct {
	Config config.Query
}

// SetFlags binds the query flags to f.Config.  The current values of
// f.Config are the flag defaults.
func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.DurationVar(&f.Config.Timeout, "query.timeout", f.Config.Timeout, "maximum run time of a query (0 for none)")
	fs.IntVar(&f.Config.RowLimit, "query.limit", f.Config.RowLimit, "maximum number of rows a query emits (0 for none)")
	fs.StringVar(&f.Config.TimeZone, "query.tz", f.Config.TimeZone, "time zone of time buckets and time range flags")
}

// Load decodes the command list in the file at path.  A path of "-"
// means standard input.
func Load(path string) ([]command.Command, error) {
	var b []byte
	var err error
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return command.Decode(b)
}
