package monitor

import (
	"maps"

	"github.com/julianstephens/pgdig/internal/pgdig/xlog"
)

// Stats summarizes a monitor run.
type Stats struct {
	Messages          uint64                            `json:"messages"`
	Decoded           uint64                            `json:"decoded"`
	Errors            uint64                            `json:"errors"`
	Keepalives        uint64                            `json:"keepalives"`
	Blocks            uint64                            `json:"blocks"`
	ChecksumsVerified uint64                            `json:"checksums_verified"`
	Skipped           map[xlog.SkipReason]uint64        `json:"skipped"`
	ErrorsByKind      map[xlog.DecodeErrorKind]uint64   `json:"-"`
	ByResourceManager map[xlog.ResourceManagerID]uint64 `json:"-"`
	LastStart         xlog.LogPosition                  `json:"last_start"`
	LastEnd           xlog.LogPosition                  `json:"last_end"`
}

func newStats() Stats {
	return Stats{
		Skipped:           make(map[xlog.SkipReason]uint64),
		ErrorsByKind:      make(map[xlog.DecodeErrorKind]uint64),
		ByResourceManager: make(map[xlog.ResourceManagerID]uint64),
	}
}

func (s Stats) clone() Stats {
	c := s
	c.Skipped = maps.Clone(s.Skipped)
	c.ErrorsByKind = maps.Clone(s.ErrorsByKind)
	c.ByResourceManager = maps.Clone(s.ByResourceManager)
	return c
}

// Fields flattens the stats into logger key/value pairs.
func (s Stats) Fields() []interface{} {
	fields := []interface{}{
		"messages", s.Messages,
		"decoded", s.Decoded,
		"errors", s.Errors,
		"keepalives", s.Keepalives,
		"blocks", s.Blocks,
		"checksums_verified", s.ChecksumsVerified,
		"last_start", s.LastStart.String(),
		"last_end", s.LastEnd.String(),
	}
	for _, reason := range []xlog.SkipReason{xlog.SkipReservedTransaction, xlog.SkipUnsupportedResourceManager} {
		if n := s.Skipped[reason]; n > 0 {
			fields = append(fields, "skipped_"+reason.String(), n)
		}
	}
	for _, id := range xlog.ResourceManagers() {
		if n := s.ByResourceManager[id]; n > 0 {
			fields = append(fields, "rmgr_"+id.String(), n)
		}
	}
	return fields
}
