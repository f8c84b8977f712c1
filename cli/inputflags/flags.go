package inputflags

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/araddon/dateparse"
	"github.com/brimdata/iql/backend/mem"
	"github.com/brimdata/iql/session"
)

type Flags struct {
	Fixture string
	from    string
	to      string
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&f.Fixture, "fixture", "", "YAML file of datasets to query")
	fs.StringVar(&f.from, "from", "", "start of the time range of timed datasets (any common date format)")
	fs.StringVar(&f.to, "to", "", "end of the time range of timed datasets, exclusive")
}

// Range parses the -from and -to flags in loc.  An empty flag leaves its
// side of the range open.
func (f *Flags) Range(loc *time.Location) (time.Time, time.Time, error) {
	from, err := parseTime(f.from, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("-from: %w", err)
	}
	to, err := parseTime(f.to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("-to: %w", err)
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return time.Time{}, time.Time{}, errors.New("-from must be before -to")
	}
	return from, to, nil
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return dateparse.ParseIn(s, loc)
}

// Open loads the fixture and opens a session over one shard per dataset
// restricted to the flag time range.
func (f *Flags) Open(loc *time.Location) (*session.Session, error) {
	if f.Fixture == "" {
		return nil, errors.New("no dataset fixture given (use -fixture)")
	}
	from, to, err := f.Range(loc)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(f.Fixture)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	datasets, err := mem.LoadFixture(file)
	if err != nil {
		return nil, err
	}
	var ds []*session.Dataset
	for _, d := range datasets {
		shard := mem.Shard{Dataset: d, Start: from, End: to}
		ds = append(ds, &session.Dataset{
			Session: mem.NewSession(shard),
			Schema:  d.Schema(),
			Shards:  []string{shard.ID()},
		})
	}
	return session.New(ds, loc)
}
