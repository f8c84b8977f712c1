// Package cli holds the flags shared by the iql commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/brimdata/iql/cli/cacheflags"
	"github.com/brimdata/iql/cli/logflags"
	"github.com/brimdata/iql/cli/queryflags"
	"github.com/brimdata/iql/config"
)

// Flags are the global flags.  The engine configuration is built from
// config.Default, then the -config file, then the configuration flags
// given on the command line.
type Flags struct {
	Log   logflags.Flags
	Cache cacheflags.Flags
	Query queryflags.Flags

	showVersion    bool
	configPath     string
	cpuprofile     string
	memprofile     string
	cpuProfileFile *os.File
	fs             *flag.FlagSet
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	f.fs = f.bind(fs, config.Default())
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")
	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.cpuprofile, "cpuprofile", "", "write cpu profile to given file name")
	fs.StringVar(&f.memprofile, "memprofile", "", "write memory profile to given file name")
}

// bind sets the configuration flags of fs to conf and returns fs.
func (f *Flags) bind(fs *flag.FlagSet, conf config.Config) *flag.FlagSet {
	f.Log.Config = conf.Logger
	f.Cache.Config = conf.Cache
	f.Query.Config = conf.Query
	f.Log.SetFlags(fs)
	f.Cache.SetFlags(fs)
	f.Query.SetFlags(fs)
	return fs
}

// Config returns the configuration the flags describe.
func (f *Flags) Config() config.Config {
	return config.Config{
		Logger: f.Log.Config,
		Cache:  f.Cache.Config,
		Query:  f.Query.Config,
	}
}

func (f *Flags) loadConfig() error {
	conf := config.Default()
	if err := conf.Load(f.configPath); err != nil {
		return err
	}
	// Replay the flags given on the command line over the file.
	set := make(map[string]string)
	f.fs.Visit(func(fl *flag.Flag) {
		set[fl.Name] = fl.Value.String()
	})
	replay := f.bind(flag.NewFlagSet("config", flag.ContinueOnError), conf)
	for name, value := range set {
		if replay.Lookup(name) == nil {
			continue
		}
		if err := replay.Set(name, value); err != nil {
			return fmt.Errorf("-%s: %w", name, err)
		}
	}
	c := f.Config()
	return c.Validate()
}

type Initializer interface {
	Init() error
}

func (f *Flags) Init(all ...Initializer) (context.Context, context.CancelFunc, error) {
	if f.showVersion {
		fmt.Printf("Version: %s\n", Version())
		os.Exit(0)
	}
	if f.configPath != "" {
		if err := f.loadConfig(); err != nil {
			return nil, nil, err
		}
	} else {
		c := f.Config()
		if err := c.Validate(); err != nil {
			return nil, nil, err
		}
	}
	var err error
	for _, flags := range all {
		if initErr := flags.Init(); err == nil {
			err = initErr
		}
	}
	if err != nil {
		return nil, nil, err
	}
	if f.cpuprofile != "" {
		f.runCPUProfile(f.cpuprofile)
	}
	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGPIPE, syscall.SIGTERM)
	cleanup := func() {
		cancel()
		f.cleanup()
	}
	return &interruptedContext{ctx}, cleanup, nil
}

type interruptedContext struct{ context.Context }

func (i *interruptedContext) Err() error {
	err := i.Context.Err()
	if errors.Is(err, context.Canceled) {
		return errors.New("interrupted")
	}
	return err
}

func (f *Flags) cleanup() {
	if f.cpuProfileFile != nil {
		pprof.StopCPUProfile()
		f.cpuProfileFile.Close()
	}
	if f.memprofile != "" {
		runMemProfile(f.memprofile)
	}
}

func (f *Flags) runCPUProfile(path string) {
	file, err := os.Create(path)
	if err != nil {
		log.Fatal(err)
	}
	f.cpuProfileFile = file
	pprof.StartCPUProfile(file)
}

func runMemProfile(path string) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatal(err)
	}
	runtime.GC()
	pprof.Lookup("allocs").WriteTo(f, 0)
	f.Close()
}
