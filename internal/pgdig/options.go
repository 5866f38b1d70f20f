package pgdig

import (
	"time"

	"github.com/julianstephens/pgdig/internal/pgdig/xlog"
)

// StreamOptions contains configuration for streaming and decoding WAL.
//
// Everything here can be persisted in the config file; logging level and
// console streaming stay CLI concerns.
type StreamOptions struct {
	// Replication connection (persisted as conn_string, slot, create_slot, start_position)
	ConnString    string
	Slot          string
	CreateSlot    bool
	StartPosition xlog.LogPosition // zero means the server's current flush position

	// StatusInterval is how often a standby status update is sent when idle.
	StatusInterval time.Duration

	// Decoding (persisted as record_layout, verify_checksum)
	Layout         xlog.RecordLayout
	VerifyChecksum bool

	// File-based logging configuration (persisted as log_*)
	LogDir     string
	LogMaxSize int
	LogMaxBak  int
}

// DefaultStreamOptions returns options for a local server.
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		ConnString:     DefaultConnString,
		Slot:           DefaultSlotName,
		StatusInterval: DefaultStatusInterval,
		LogMaxSize:     DefaultLogMaxSize,
		LogMaxBak:      DefaultLogMaxBackups,
	}
}

// Decoder returns the decoder described by the options.
func (o StreamOptions) Decoder() xlog.Decoder {
	return xlog.Decoder{Layout: o.Layout, VerifyChecksum: o.VerifyChecksum}
}
