package config

import (
	"errors"
	"fmt"
)

type ConfigErrorKind int

const (
	ConfigErrorKindNotFound ConfigErrorKind = iota + 1
	ConfigErrorKindUnsupportedVersion
	ConfigErrorKindWorkingDirectory
	ConfigErrorKindEncode
	ConfigErrorKindDecode
	ConfigErrorKindWrite
	ConfigErrorKindAlreadyExists
	ConfigErrorKindInvalid
)

var (
	ErrConfigNotFound           = errors.New("config: file not found")
	ErrConfigUnsupportedVersion = errors.New("config: unsupported version")
	ErrConfigWorkingDirectory   = errors.New("config: unable to get working directory")
	ErrConfigEncode             = errors.New("config: unable to encode to JSON")
	ErrConfigDecode             = errors.New("config: unable to decode from JSON")
	ErrConfigWrite              = errors.New("config: unable to write to file")
	ErrConfigAlreadyExists      = errors.New("config: file already exists")
	ErrConfigInvalid            = errors.New("config: invalid value")
)

func (k ConfigErrorKind) String() string {
	switch k {
	case ConfigErrorKindNotFound:
		return "not_found"
	case ConfigErrorKindUnsupportedVersion:
		return "unsupported_version"
	case ConfigErrorKindWorkingDirectory:
		return "working_directory"
	case ConfigErrorKindEncode:
		return "encode"
	case ConfigErrorKindDecode:
		return "decode"
	case ConfigErrorKindWrite:
		return "write"
	case ConfigErrorKindAlreadyExists:
		return "already_exists"
	case ConfigErrorKindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

type ConfigError struct {
	Kind  ConfigErrorKind
	Field string // set for ConfigErrorKindInvalid
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error (%v) field=%s: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("config error (%v): %v", e.Kind, e.Err)
}

func (e *ConfigError) Unwrap() error {
	switch e.Kind {
	case ConfigErrorKindNotFound:
		return ErrConfigNotFound
	case ConfigErrorKindUnsupportedVersion:
		return ErrConfigUnsupportedVersion
	case ConfigErrorKindWorkingDirectory:
		return ErrConfigWorkingDirectory
	case ConfigErrorKindEncode:
		return ErrConfigEncode
	case ConfigErrorKindDecode:
		return ErrConfigDecode
	case ConfigErrorKindWrite:
		return ErrConfigWrite
	case ConfigErrorKindAlreadyExists:
		return ErrConfigAlreadyExists
	case ConfigErrorKindInvalid:
		return ErrConfigInvalid
	default:
		return e.Err
	}
}

func invalid(field string, err error) error {
	return &ConfigError{Kind: ConfigErrorKindInvalid, Field: field, Err: err}
}
