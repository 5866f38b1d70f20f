package replication

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pglogrepl"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgproto3"
	"github.com/pkg/errors"

	"github.com/julianstephens/pgdig/internal/logger"
	"github.com/julianstephens/pgdig/internal/pgdig"
	"github.com/julianstephens/pgdig/internal/pgdig/xlog"
)

// A Stream receives physical replication CopyData from a primary, answering
// keepalives and sending standby status updates along the way.
type Stream struct {
	conn   *pgconn.PgConn
	opts   pgdig.StreamOptions
	logger logger.Logger

	system     pglogrepl.IdentifySystemResult
	currentLSN pglogrepl.LSN

	standbyStatusDeadline time.Time
}

// Connect opens a replication connection. opts.ConnString must request a
// replication session.
func Connect(ctx context.Context, opts pgdig.StreamOptions, lg logger.Logger) (*Stream, error) {
	if lg == nil {
		lg = logger.NoOpLogger{}
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = pgdig.DefaultStatusInterval
	}

	conn, err := pgconn.Connect(ctx, opts.ConnString)
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect for replication")
	}

	return &Stream{conn: conn, opts: opts, logger: lg}, nil
}

// Start identifies the server, creates the slot when asked to, and begins
// streaming. A zero StartPosition starts at the server's current position.
func (s *Stream) Start(ctx context.Context) error {
	system, err := pglogrepl.IdentifySystem(ctx, s.conn)
	if err != nil {
		return errors.Wrap(err, "unable to identify system")
	}
	s.system = system
	s.logger.Info("identified system",
		"system_id", system.SystemID,
		"timeline", system.Timeline,
		"xlog_pos", system.XLogPos.String(),
		"db_name", system.DBName,
	)

	if s.opts.CreateSlot {
		res, err := pglogrepl.CreateReplicationSlot(ctx, s.conn, s.opts.Slot, "", pglogrepl.CreateReplicationSlotOptions{
			Mode: pglogrepl.PhysicalReplication,
		})
		if err != nil {
			return errors.Wrapf(err, "unable to create replication slot %q", s.opts.Slot)
		}
		s.logger.Info("created replication slot", "slot", res.SlotName, "consistent_point", res.ConsistentPoint)
	}

	start := pglogrepl.LSN(s.opts.StartPosition.Uint64())
	if start == 0 {
		start = system.XLogPos
	}
	s.currentLSN = start

	s.logger.Info("starting replication", "slot", s.opts.Slot, "start_lsn", start.String(), "timeline", system.Timeline)
	if err := pglogrepl.StartReplication(ctx, s.conn, s.opts.Slot, start, pglogrepl.StartReplicationOptions{
		Timeline: system.Timeline,
		Mode:     pglogrepl.PhysicalReplication,
	}); err != nil {
		return errors.Wrap(err, "unable to start replication")
	}

	// Send one status update immediately on startup
	s.standbyStatusDeadline = time.Now()
	return nil
}

// System is the IDENTIFY_SYSTEM result from Start.
func (s *Stream) System() pglogrepl.IdentifySystemResult {
	return s.system
}

// Position is the end of the most recently received WAL data.
func (s *Stream) Position() xlog.LogPosition {
	return xlog.LogPositionFromUint64(uint64(s.currentLSN))
}

// Next blocks until the next XLogData message arrives and returns its
// CopyData payload, 'w' tag included. The slice is owned by the caller.
// io.EOF means the server ended the stream.
func (s *Stream) Next(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !time.Now().Before(s.standbyStatusDeadline) {
			if err := s.sendStandbyStatusUpdate(ctx); err != nil {
				return nil, errors.Wrap(err, "failed to send status update")
			}
			s.standbyStatusDeadline = time.Now().Add(s.opts.StatusInterval)
		}

		receiveCtx, cancelReceiveCtx := context.WithDeadline(ctx, s.standbyStatusDeadline)
		msg, err := s.conn.ReceiveMessage(receiveCtx)
		cancelReceiveCtx()
		if pgconn.Timeout(err) && ctx.Err() == nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.Wrap(err, "receive failed")
		}

		switch msg := msg.(type) {
		case *pgproto3.CopyData:
			if len(msg.Data) == 0 {
				s.logger.Warn("empty CopyData message")
				continue
			}
			switch msg.Data[0] {
			case pglogrepl.PrimaryKeepaliveMessageByteID:
				pkm, err := pglogrepl.ParsePrimaryKeepaliveMessage(msg.Data[1:])
				if err != nil {
					return nil, errors.Wrap(err, "error parsing keepalive")
				}
				s.logger.Debug("primary keepalive",
					"server_wal_end", pkm.ServerWALEnd.String(),
					"server_time", pkm.ServerTime,
					"reply_requested", pkm.ReplyRequested,
				)
				if pkm.ReplyRequested {
					s.standbyStatusDeadline = time.Now()
				}
			case pglogrepl.XLogDataByteID:
				header, err := xlog.DecodeMessageHeader(msg.Data, 1)
				if err != nil {
					return nil, errors.Wrap(err, "error parsing XLogData")
				}
				walLen := len(msg.Data) - 1 - xlog.MessageHeaderSize
				s.currentLSN = pglogrepl.LSN(header.StartPosition) + pglogrepl.LSN(walLen)

				payload := make([]byte, len(msg.Data))
				copy(payload, msg.Data)
				return payload, nil
			default:
				s.logger.Warn("unknown CopyData message", "tag", string(msg.Data[0]))
			}
		case *pgproto3.CopyDone:
			s.logger.Info("server ended replication", "position", s.currentLSN.String())
			return nil, io.EOF
		case *pgproto3.ErrorResponse:
			return nil, errors.Wrap(pgconn.ErrorResponseToPgError(msg), "replication error")
		default:
			s.logger.Warn("unexpected message", "type", typeName(msg))
		}
	}
}

func (s *Stream) sendStandbyStatusUpdate(ctx context.Context) error {
	s.logger.Debug("sending standby status update", "write_lsn", s.currentLSN.String())
	return pglogrepl.SendStandbyStatusUpdate(ctx, s.conn, pglogrepl.StandbyStatusUpdate{
		WALWritePosition: s.currentLSN,
	})
}

// Close terminates the connection.
func (s *Stream) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

func typeName(msg pgproto3.BackendMessage) string {
	return fmt.Sprintf("%T", msg)
}
