package logflags

import (
	"flag"

	"github.com/brimdata/iql/service/logger"
	"go.uber.org/zap"
)

type Flags struct {
	Config logger.Config
}

// SetFlags binds the logger flags to f.Config.  The current values of
// f.Config are the flag defaults.
func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.BoolVar(&f.Config.DevMode, "log.devmode", f.Config.DevMode, "development mode (if enabled dpanic level logs will cause a panic)")
	fs.Var(&f.Config.Level, "log.level", "logging level")
	fs.StringVar(&f.Config.Path, "log.path", f.Config.Path, "path to send logs (values: stderr, stdout, path in file system)")
	fs.Var(&f.Config.Mode, "log.filemode", "logger file write mode (values: append, truncate, rotate)")
	fs.Var(&f.Config.Names, "log.names", "comma-separated loggers whose entries are written (values: command, runtime; default all)")
}

func (f *Flags) Open() (*zap.Logger, error) {
	return logger.New(f.Config)
}
