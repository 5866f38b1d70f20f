package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/julianstephens/go-utils/helpers"

	"github.com/julianstephens/pgdig/internal/logger"
	"github.com/julianstephens/pgdig/internal/pgdig"
	"github.com/julianstephens/pgdig/internal/pgdig/config"
)

// RunContext is bound into every command's Run method.
type RunContext struct {
	Context context.Context
	Logger  logger.Logger
	Out     io.Writer
	// Options come from the config file, or defaults when there is none.
	Options pgdig.StreamOptions
}

func (rc *RunContext) ctx() context.Context {
	if rc.Context == nil {
		return context.Background()
	}
	return rc.Context
}

func (rc *RunContext) out() io.Writer {
	if rc.Out == nil {
		return os.Stdout
	}
	return rc.Out
}

func (rc *RunContext) logger() logger.Logger {
	if rc.Logger == nil {
		return logger.NoOpLogger{}
	}
	return rc.Logger
}

// LoadOptions reads the config file at configPath, or pgdig.json in the
// working directory when configPath is empty. A missing default file is not
// an error.
func LoadOptions(configPath string) (pgdig.StreamOptions, error) {
	explicit := configPath != ""
	if !explicit {
		p, err := config.DefaultPath()
		if err != nil {
			return pgdig.StreamOptions{}, err
		}
		configPath = p
	}

	if !explicit && !helpers.Exists(configPath) {
		return pgdig.DefaultStreamOptions(), nil
	}

	c, err := config.Load(configPath)
	if err != nil {
		return pgdig.StreamOptions{}, err
	}
	return c.StreamOptions(), nil
}

// LogFileConfig places the log file in opts.LogDir, or ~/.pgdig/logs.
func LogFileConfig(opts pgdig.StreamOptions) (logger.FileConfig, error) {
	dir := opts.LogDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return logger.FileConfig{}, err
		}
		dir = filepath.Join(home, pgdig.DefaultAppDir, pgdig.DefaultLogDir)
	}

	return logger.FileConfig{
		Dir:        dir,
		FileName:   pgdig.DefaultLogFileName,
		MaxSizeMB:  opts.LogMaxSize,
		MaxBackups: opts.LogMaxBak,
		MaxAgeDays: pgdig.DefaultLogMaxAgeDays,
	}, nil
}
