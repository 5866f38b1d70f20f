package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/go-utils/helpers"
	goulog "github.com/julianstephens/go-utils/logger"
)

// ConsoleLogger writes one line per entry to stdout, or stderr for errors.
type ConsoleLogger struct {
	minLevel Level
	out      io.Writer
	err      io.Writer
}

// NewConsoleLogger creates a logger that writes to console (stdout/stderr).
// Unknown levels fall back to info.
func NewConsoleLogger(level string) Logger {
	lvl, _ := ParseLevel(level)
	return &ConsoleLogger{
		minLevel: lvl,
		out:      os.Stdout,
		err:      os.Stderr,
	}
}

func (cl *ConsoleLogger) Debug(msg string, fields ...interface{}) {
	cl.log(LevelDebug, msg, fields...)
}

func (cl *ConsoleLogger) Info(msg string, fields ...interface{}) {
	cl.log(LevelInfo, msg, fields...)
}

func (cl *ConsoleLogger) Warn(msg string, fields ...interface{}) {
	cl.log(LevelWarn, msg, fields...)
}

func (cl *ConsoleLogger) Error(msg string, err error, fields ...interface{}) {
	allFields := append([]interface{}{"error", err}, fields...)
	cl.log(LevelError, msg, allFields...)
}

func (cl *ConsoleLogger) log(level Level, msg string, fields ...interface{}) {
	if level < cl.minLevel {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s: %s", time.Now().Format("2006-01-02T15:04:05.000Z07:00"), strings.ToUpper(level.String()), msg)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", fields[i], fields[i+1])
	}
	sb.WriteByte('\n')

	w := cl.out
	if level == LevelError {
		w = cl.err
	}
	fmt.Fprint(w, sb.String()) // nolint:errcheck
}

// FileConfig describes a rotating log file.
type FileConfig struct {
	Dir        string // created if missing
	FileName   string // e.g. "pgdig.log"
	MaxSizeMB  int    // size per file before rotation
	MaxBackups int    // rotated files to keep; 0 keeps all
	MaxAgeDays int    // 0 keeps rotated files regardless of age
}

// optionalLimit maps an unset (zero) limit to nil, which go-utils reads as
// no limit.
func optionalLimit(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}

// FileLogger wraps go-utils/logger with rotating file output.
type FileLogger struct {
	underlying *goulog.Logger
	filePath   string
}

// NewFileLogger creates a logger that writes JSON entries to a rotating file.
// Rotated files are compressed.
func NewFileLogger(cfg FileConfig) (Logger, error) {
	if err := helpers.Ensure(cfg.Dir, true); err != nil {
		return nil, wrapLoggerErr("create file logger", ErrLogCreate, err, cfg.Dir)
	}

	logPath := filepath.Join(cfg.Dir, cfg.FileName)

	underlying := goulog.New()
	if err := underlying.SetFileOutputWithConfig(goulog.FileRotationConfig{
		Filename:   logPath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: optionalLimit(cfg.MaxBackups),
		MaxAge:     optionalLimit(cfg.MaxAgeDays),
		Compress:   true,
	}); err != nil {
		return nil, wrapLoggerErr("create file logger", ErrLogCreate, err, logPath)
	}

	return &FileLogger{
		underlying: underlying,
		filePath:   logPath,
	}, nil
}

// Path is the active log file.
func (fl *FileLogger) Path() string {
	return fl.filePath
}

func (fl *FileLogger) Debug(msg string, fields ...interface{}) {
	if len(fields) == 0 {
		fl.underlying.Debug(msg)
		return
	}
	fl.underlying.WithFields(fieldsToMap(fields)).Debug(msg)
}

func (fl *FileLogger) Info(msg string, fields ...interface{}) {
	if len(fields) == 0 {
		fl.underlying.Info(msg)
		return
	}
	fl.underlying.WithFields(fieldsToMap(fields)).Info(msg)
}

func (fl *FileLogger) Warn(msg string, fields ...interface{}) {
	if len(fields) == 0 {
		fl.underlying.Warn(msg)
		return
	}
	fl.underlying.WithFields(fieldsToMap(fields)).Warn(msg)
}

func (fl *FileLogger) Error(msg string, err error, fields ...interface{}) {
	allFields := append([]interface{}{"error", err}, fields...)
	fl.underlying.WithFields(fieldsToMap(allFields)).Error(msg)
}

// Close exists for symmetry with MultiLogger; go-utils/logger has nothing to flush.
func (fl *FileLogger) Close() error {
	return nil
}

// fieldsToMap pairs up key, value arguments. A trailing key without a value is dropped.
func fieldsToMap(fields []interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok {
			result[key] = err.Error()
			continue
		}
		result[key] = fields[i+1]
	}
	return result
}

// MultiLogger writes to multiple outputs simultaneously.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines multiple loggers into a single logger.
func NewMultiLogger(loggers ...Logger) Logger {
	return &MultiLogger{
		loggers: loggers,
	}
}

func (ml *MultiLogger) Debug(msg string, fields ...interface{}) {
	for _, lg := range ml.loggers {
		lg.Debug(msg, fields...)
	}
}

func (ml *MultiLogger) Info(msg string, fields ...interface{}) {
	for _, lg := range ml.loggers {
		lg.Info(msg, fields...)
	}
}

func (ml *MultiLogger) Warn(msg string, fields ...interface{}) {
	for _, lg := range ml.loggers {
		lg.Warn(msg, fields...)
	}
}

func (ml *MultiLogger) Error(msg string, err error, fields ...interface{}) {
	for _, lg := range ml.loggers {
		lg.Error(msg, err, fields...)
	}
}

// Close closes every Closeable logger and reports the last failure.
func (ml *MultiLogger) Close() error {
	var lastErr error
	for _, lg := range ml.loggers {
		if c, ok := lg.(Closeable); ok {
			if err := c.Close(); err != nil {
				lastErr = err
			}
		}
	}
	if lastErr == nil {
		return nil
	}
	return wrapLoggerErr("close multi logger", ErrLogClose, lastErr, "")
}

// Options selects the loggers New builds.
type Options struct {
	Level  string
	Debug  bool        // overrides Level
	Stream bool        // console only, no file
	File   *FileConfig // nil means console only
}

// New builds a console logger, plus a rotating file logger when a file is
// configured and streaming is off.
func New(opts Options) (Logger, error) {
	level := opts.Level
	if opts.Debug {
		level = LevelDebug.String()
	}
	if _, err := ParseLevel(level); err != nil {
		return nil, wrapLoggerErr("create logger", ErrLogLevel, err, "")
	}

	console := NewConsoleLogger(level)
	if opts.Stream || opts.File == nil {
		return console, nil
	}

	file, err := NewFileLogger(*opts.File)
	if err != nil {
		return nil, err
	}
	return NewMultiLogger(file, console), nil
}
