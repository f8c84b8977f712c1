package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Mode says how a log file that already exists is treated when the
// engine starts.
type Mode string

const (
	ModeAppend   Mode = "append"
	ModeTruncate Mode = "truncate"
	ModeRotate   Mode = "rotate"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeAppend, nil
	case ModeAppend, ModeTruncate, ModeRotate:
		return m, nil
	}
	return "", fmt.Errorf("log file mode %q: want append, truncate or rotate", s)
}

func (m *Mode) Set(s string) error {
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

func (m Mode) String() string {
	return string(m)
}

func (m *Mode) UnmarshalText(text []byte) error {
	return m.Set(string(text))
}

// Rotation bounds the files of ModeRotate.  Zero fields take the
// defaults of DefaultRotation.
type Rotation struct {
	MaxSizeMB  int  `yaml:"max_size_mb,omitempty"`
	MaxBackups int  `yaml:"max_backups,omitempty"`
	MaxAgeDays int  `yaml:"max_age_days,omitempty"`
	Compress   bool `yaml:"compress,omitempty"`
}

func DefaultRotation() Rotation {
	return Rotation{MaxSizeMB: 5, MaxBackups: 3, MaxAgeDays: 28, Compress: true}
}

func (r Rotation) withDefaults() Rotation {
	def := DefaultRotation()
	if r.MaxSizeMB <= 0 {
		r.MaxSizeMB = def.MaxSizeMB
	}
	if r.MaxBackups <= 0 {
		r.MaxBackups = def.MaxBackups
	}
	if r.MaxAgeDays <= 0 {
		r.MaxAgeDays = def.MaxAgeDays
	}
	return r
}

// open returns the sink of conf.  Path is a file name or one of stderr
// (also the empty path), stdout or /dev/null.
func open(conf Config) (zapcore.WriteSyncer, error) {
	switch conf.Path {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), nil
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "/dev/null":
		return zapcore.AddSync(io.Discard), nil
	}
	flags := os.O_WRONLY | os.O_CREATE
	switch conf.Mode {
	case ModeRotate:
		if _, err := os.Stat(filepath.Dir(conf.Path)); err != nil {
			return nil, err
		}
		r := conf.Rotation.withDefaults()
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   conf.Path,
			MaxSize:    r.MaxSizeMB,
			MaxBackups: r.MaxBackups,
			MaxAge:     r.MaxAgeDays,
			Compress:   r.Compress,
		}), nil
	case ModeTruncate:
		flags |= os.O_TRUNC
	default:
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(conf.Path, flags, 0644)
	if err != nil {
		return nil, err
	}
	return zapcore.Lock(f), nil
}
