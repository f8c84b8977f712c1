package outputflags

import (
	"flag"
	"fmt"
	"os"

	"github.com/brimdata/iql/rowio"
	"github.com/brimdata/iql/rowio/tsvio"
)

type Flags struct {
	outputFile string
	force      bool
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&f.outputFile, "o", "", "write rows to output file instead of stdout")
	fs.BoolVar(&f.force, "f", false, "overwrite an existing output file")
}

// Open returns a TSV writer on the output file or standard output.
func (f *Flags) Open() (rowio.WriteCloser, error) {
	if f.outputFile == "" {
		return tsvio.NewWriter(nopCloser{os.Stdout}, tsvio.WriterOpts{}), nil
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !f.force {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(f.outputFile, flags, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%s: file exists (use -f to overwrite)", f.outputFile)
		}
		return nil, err
	}
	return tsvio.NewWriter(file, tsvio.WriterOpts{}), nil
}

type nopCloser struct{ *os.File }

func (nopCloser) Close() error { return nil }
