package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/jackc/pglogrepl"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/pgdig/internal/logger"
	"github.com/julianstephens/pgdig/internal/pgdig"
	"github.com/julianstephens/pgdig/internal/pgdig/xlog"
)

// Source yields CopyData payloads, 'w' tag included. io.EOF ends the run.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

// Handler receives each successfully decoded message.
type Handler func(msg xlog.DecodedMessage)

// Monitor pulls payloads from a Source on one goroutine and decodes them on
// another, keeping running statistics.
type Monitor struct {
	source     Source
	decoder    xlog.Decoder
	logger     logger.Logger
	bufferSize int
	handler    Handler

	mu    sync.Mutex
	stats Stats
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger. The default discards everything.
func WithLogger(lg logger.Logger) Option {
	return func(m *Monitor) {
		if lg != nil {
			m.logger = lg
		}
	}
}

// WithHandler sets a callback for decoded messages.
func WithHandler(h Handler) Option {
	return func(m *Monitor) { m.handler = h }
}

// WithBufferSize sets how many payloads may wait between receive and decode.
func WithBufferSize(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.bufferSize = n
		}
	}
}

// New creates a Monitor for source.
func New(source Source, decoder xlog.Decoder, opts ...Option) *Monitor {
	m := &Monitor{
		source:     source,
		decoder:    decoder,
		logger:     logger.NoOpLogger{},
		bufferSize: pgdig.DefaultBufferSize,
		stats:      newStats(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run receives and decodes until the source reports io.EOF, the source
// fails, or ctx is done. Decode failures are logged and counted, not returned.
func (m *Monitor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	payloads := make(chan []byte, m.bufferSize)

	g.Go(func() error {
		defer close(payloads)
		for {
			data, err := m.source.Next(gctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("receive: %w", err)
			}

			select {
			case payloads <- data:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		for data := range payloads {
			m.process(data)
		}
		return nil
	})

	return g.Wait()
}

func (m *Monitor) process(data []byte) {
	if len(data) > 0 && data[0] == xlog.PrimaryKeepaliveTag {
		m.processKeepalive(data)
		return
	}
	if len(data) == 0 || data[0] != xlog.XLogDataTag {
		m.logger.Warn("skipping payload without XLogData tag", "length", len(data))
		m.recordError(nil)
		return
	}

	msg, err := m.decoder.Decode(data, 1)
	if err != nil {
		fields := []interface{}{"length", len(data)}
		if de, ok := xlog.AsDecodeError(err); ok {
			fields = append(fields, "kind", de.Kind.String(), "at", de.At)
		}
		m.logger.Warn("failed to decode message", append(fields, "error", err)...)
		m.recordError(err)
		return
	}

	m.logger.Debug("decoded message",
		"start_lsn", msg.Header.Start().String(),
		"end_lsn", msg.Header.End().String(),
		"xid", msg.Record.TransactionID,
		"rmgr", msg.Record.ResourceManagerID.String(),
		"blocks", len(msg.Blocks),
		"skip", msg.Skip.String(),
	)
	m.recordDecoded(msg)

	if m.handler != nil {
		m.handler(msg)
	}
}

func (m *Monitor) processKeepalive(data []byte) {
	pkm, err := pglogrepl.ParsePrimaryKeepaliveMessage(data[1:])
	if err != nil {
		m.logger.Warn("failed to parse keepalive", "length", len(data), "error", err)
		m.recordError(nil)
		return
	}

	m.logger.Debug("primary keepalive",
		"wal_end", xlog.LogPositionFromUint64(uint64(pkm.ServerWALEnd)).String(),
		"reply_requested", pkm.ReplyRequested,
	)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Messages++
	m.stats.Keepalives++
}

// Stats returns a copy of the running statistics.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats.clone()
}

func (m *Monitor) recordDecoded(msg xlog.DecodedMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.Messages++
	m.stats.Decoded++
	m.stats.Blocks += uint64(len(msg.Blocks))
	m.stats.ByResourceManager[msg.Record.ResourceManagerID]++
	if msg.Skip != xlog.SkipNone {
		m.stats.Skipped[msg.Skip]++
	}
	if msg.ChecksumVerified {
		m.stats.ChecksumsVerified++
	}
	m.stats.LastStart = msg.Header.Start()
	m.stats.LastEnd = msg.Header.End()
}

func (m *Monitor) recordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.Messages++
	m.stats.Errors++
	if de, ok := xlog.AsDecodeError(err); ok {
		m.stats.ErrorsByKind[de.Kind]++
	}
}
