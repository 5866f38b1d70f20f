package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/julianstephens/go-utils/helpers"
	"github.com/julianstephens/go-utils/jsonutil"
	"github.com/julianstephens/go-utils/validator"

	"github.com/julianstephens/pgdig/internal/pgdig"
	"github.com/julianstephens/pgdig/internal/pgdig/xlog"
)

const FileName = "pgdig.json"

// Config represents the pgdig config file structure
type Config struct {
	Version          int               `json:"version"`
	ConnString       string            `json:"conn_string"`
	Slot             string            `json:"slot"`
	CreateSlot       bool              `json:"create_slot"`
	StartPosition    xlog.LogPosition  `json:"start_position"`
	RecordLayout     xlog.RecordLayout `json:"record_layout"`
	VerifyChecksum   bool              `json:"verify_checksum"`
	StatusIntervalMS uint64            `json:"status_interval_ms"`
	LogDir           string            `json:"log_dir,omitempty"`
	LogMaxSize       *uint64           `json:"log_max_size,omitempty"`
	LogMaxBackups    *uint64           `json:"log_max_backups,omitempty"`
}

// Default returns a Config with default settings
func Default() *Config {
	return &Config{
		Version:          pgdig.ConfigVersion,
		ConnString:       pgdig.DefaultConnString,
		Slot:             pgdig.DefaultSlotName,
		CreateSlot:       false,
		StartPosition:    xlog.InvalidLogPosition,
		RecordLayout:     xlog.RecordLayoutAligned,
		VerifyChecksum:   false,
		StatusIntervalMS: uint64(pgdig.DefaultStatusInterval / time.Millisecond),
		LogDir:           "",
		LogMaxSize:       nil,
		LogMaxBackups:    nil,
	}
}

// DefaultPath returns FileName in the working directory.
func DefaultPath() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", &ConfigError{Kind: ConfigErrorKindWorkingDirectory, Err: err}
	}
	return path.Join(wd, FileName), nil
}

// Create writes a default config file at configPath. It refuses to overwrite.
func Create(configPath string) error {
	if exists := helpers.Exists(configPath); exists {
		return &ConfigError{
			Kind: ConfigErrorKindAlreadyExists,
			Err:  fmt.Errorf("config already exists at %s", configPath),
		}
	}

	if err := helpers.Ensure(filepath.Dir(configPath), true); err != nil {
		return &ConfigError{Kind: ConfigErrorKindWrite, Err: err}
	}

	data, err := jsonutil.Marshal(Default())
	if err != nil {
		return &ConfigError{Kind: ConfigErrorKindEncode, Err: err}
	}

	return writeFile(configPath, data)
}

// Load reads and validates the config at configPath.
func Load(configPath string) (*Config, error) {
	if exists := helpers.Exists(configPath); !exists {
		return nil, &ConfigError{Kind: ConfigErrorKindNotFound, Err: fs.ErrNotExist}
	}

	c := &Config{}
	if err := jsonutil.ReadFileStrict(configPath, c); err != nil {
		return nil, &ConfigError{Kind: ConfigErrorKindDecode, Err: err}
	}

	if c.Version > pgdig.ConfigVersion {
		return nil, &ConfigError{
			Kind: ConfigErrorKindUnsupportedVersion,
			Err:  fmt.Errorf("config version %d is not supported", c.Version),
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Save overwrites an existing config file at configPath.
func (c *Config) Save(configPath string) error {
	if exists := helpers.Exists(configPath); !exists {
		return &ConfigError{Kind: ConfigErrorKindNotFound, Err: fs.ErrNotExist}
	}

	if err := c.Validate(); err != nil {
		return err
	}

	data, err := jsonutil.Marshal(c)
	if err != nil {
		return &ConfigError{Kind: ConfigErrorKindEncode, Err: err}
	}

	return writeFile(configPath, data)
}

// Validate checks field values that JSON decoding alone cannot.
func (c *Config) Validate() error {
	v := validator.Numbers[uint64]()

	if c.Slot == "" {
		return invalid("slot", errors.New("slot name is required"))
	}
	if err := v.ValidateNonZero(c.StatusIntervalMS); err != nil {
		return invalid("status_interval_ms", err)
	}
	if c.LogMaxSize != nil {
		if err := v.ValidateNonZero(*c.LogMaxSize); err != nil {
			return invalid("log_max_size", err)
		}
	}
	if c.LogMaxBackups != nil {
		if err := v.ValidateNonZero(*c.LogMaxBackups); err != nil {
			return invalid("log_max_backups", err)
		}
	}

	return nil
}

// StreamOptions converts the file settings, filling unset log sizes with defaults.
func (c *Config) StreamOptions() pgdig.StreamOptions {
	return pgdig.StreamOptions{
		ConnString:     c.ConnString,
		Slot:           c.Slot,
		CreateSlot:     c.CreateSlot,
		StartPosition:  c.StartPosition,
		StatusInterval: time.Duration(c.StatusIntervalMS) * time.Millisecond, //nolint:gosec
		Layout:         c.RecordLayout,
		VerifyChecksum: c.VerifyChecksum,
		LogDir:         c.LogDir,
		LogMaxSize:     intOr(c.LogMaxSize, pgdig.DefaultLogMaxSize),
		LogMaxBak:      intOr(c.LogMaxBackups, pgdig.DefaultLogMaxBackups),
	}
}

func intOr(v *uint64, def int) int {
	if v == nil {
		return def
	}
	return int(*v) //nolint:gosec
}

func writeFile(filePath string, data []byte) error {
	if err := helpers.AtomicFileWrite(filePath, data); err != nil {
		return &ConfigError{Kind: ConfigErrorKindWrite, Err: err}
	}
	f, err := os.Open(filepath.Dir(filePath)) //nolint:gosec
	if err != nil {
		return &ConfigError{Kind: ConfigErrorKindWrite, Err: err}
	}
	defer func() { _ = f.Close() }()

	if err := f.Sync(); err != nil {
		return &ConfigError{Kind: ConfigErrorKindWrite, Err: err}
	}
	return nil
}
