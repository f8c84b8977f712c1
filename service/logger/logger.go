// Package logger builds the zap loggers of the query engine.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Path string `yaml:"path"`
	// Mode applies when Path is a file.  The empty mode appends.
	Mode     Mode     `yaml:"mode,omitempty"`
	Rotation Rotation `yaml:"rotation,omitempty"`
	// Names restricts output to the entries of these loggers and their
	// descendants, e.g. "runtime" or "command".
	Names Names         `yaml:"names,flow,omitempty"`
	Level zapcore.Level `yaml:"level"`
	// DevMode makes DPanic level entries panic.
	DevMode bool `yaml:"devmode,omitempty"`
}

// Names is a list of logger names, set from a flag as a comma-separated
// list.
type Names []string

func (n *Names) Set(s string) error {
	*n = nil
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			*n = append(*n, name)
		}
	}
	return nil
}

func (n Names) String() string {
	return strings.Join(n, ",")
}

// match reports whether the entries of logger should be written.
func (n Names) match(logger string) bool {
	if len(n) == 0 {
		return true
	}
	for _, name := range n {
		if logger == name || strings.HasPrefix(logger, name+".") {
			return true
		}
	}
	return false
}

func NewCore(conf Config) (zapcore.Core, error) {
	w, err := open(conf)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(jsonEncoder(), w, conf.Level)
	if len(conf.Names) > 0 {
		core = &namedCore{core, conf.Names}
	}
	return core, nil
}

func New(conf Config) (*zap.Logger, error) {
	core, err := NewCore(conf)
	if err != nil {
		return nil, err
	}
	var opts []zap.Option
	if conf.DevMode {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...), nil
}

func jsonEncoder() zapcore.Encoder {
	conf := zap.NewProductionEncoderConfig()
	conf.CallerKey = ""
	conf.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(conf)
}

// namedCore drops the entries of loggers not in names.
type namedCore struct {
	zapcore.Core
	names Names
}

func (c *namedCore) With(fields []zapcore.Field) zapcore.Core {
	return &namedCore{c.Core.With(fields), c.names}
}

func (c *namedCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.names.match(e.LoggerName) {
		return ce
	}
	return c.Core.Check(e, ce)
}
