package testutil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgproto3"
)

// FakePrimary is a single-connection server that speaks enough of the
// replication protocol to drive a Stream: IDENTIFY_SYSTEM,
// CREATE_REPLICATION_SLOT and START_REPLICATION, followed by a scripted
// sequence of CopyData payloads.
type FakePrimary struct {
	SystemID string
	Timeline int
	XLogPos  string
	DBName   string

	// Payloads are sent as CopyData after START_REPLICATION, in order.
	Payloads [][]byte
	// EndStream sends CopyDone after the payloads.
	EndStream bool

	listener net.Listener
	done     chan struct{}

	mu            sync.Mutex
	queries       []string
	statusUpdates []uint64
	serveErr      error
}

// NewFakePrimary starts listening on a loopback port. The server is closed
// when the test ends.
func NewFakePrimary(t testing.TB, payloads ...[]byte) *FakePrimary {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	f := &FakePrimary{
		SystemID:  "7451029135287563091",
		Timeline:  1,
		XLogPos:   "0/1552C80",
		DBName:    "postgres",
		Payloads:  payloads,
		EndStream: true,
		listener:  ln,
		done:      make(chan struct{}),
	}
	t.Cleanup(func() { _ = ln.Close() })
	return f
}

// Serve accepts one connection in the background. Call it after adjusting
// the exported fields.
func (f *FakePrimary) Serve() {
	go func() {
		defer close(f.done)
		conn, err := f.listener.Accept()
		if err != nil {
			f.setErr(err)
			return
		}
		defer func() { _ = conn.Close() }()
		f.setErr(f.serve(conn))
	}()
}

// ConnString points a replication client at the server.
func (f *FakePrimary) ConnString() string {
	addr := f.listener.Addr().(*net.TCPAddr)
	return fmt.Sprintf("host=127.0.0.1 port=%d user=postgres dbname=postgres sslmode=disable replication=true", addr.Port)
}

// Wait blocks until the connection ends and returns the serve error, if any.
func (f *FakePrimary) Wait() error {
	<-f.done
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.serveErr
}

// Queries returns the simple queries received, in order.
func (f *FakePrimary) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// StatusUpdates returns the write positions of the standby status updates received.
func (f *FakePrimary) StatusUpdates() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.statusUpdates...)
}

func (f *FakePrimary) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil && f.serveErr == nil {
		f.serveErr = err
	}
}

func (f *FakePrimary) serve(conn net.Conn) error {
	backend := pgproto3.NewBackend(conn, conn)

	if err := f.handshake(conn, backend); err != nil {
		return err
	}

	for {
		msg, err := backend.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}

		switch msg := msg.(type) {
		case *pgproto3.Query:
			f.mu.Lock()
			f.queries = append(f.queries, msg.String)
			f.mu.Unlock()
			if err := f.answer(backend, msg.String); err != nil {
				return err
			}
		case *pgproto3.CopyData:
			if len(msg.Data) >= 9 && msg.Data[0] == 'r' {
				f.mu.Lock()
				f.statusUpdates = append(f.statusUpdates, binary.BigEndian.Uint64(msg.Data[1:9]))
				f.mu.Unlock()
			}
		case *pgproto3.CopyDone:
		case *pgproto3.Terminate:
			return nil
		default:
			return fmt.Errorf("unexpected frontend message %T", msg)
		}
	}
}

func (f *FakePrimary) handshake(conn net.Conn, backend *pgproto3.Backend) error {
	for {
		startup, err := backend.ReceiveStartupMessage()
		if err != nil {
			return err
		}
		switch startup.(type) {
		case *pgproto3.StartupMessage:
			backend.Send(&pgproto3.AuthenticationOk{})
			backend.Send(&pgproto3.ParameterStatus{Name: "server_version", Value: "16.4"})
			backend.Send(&pgproto3.BackendKeyData{ProcessID: 4242, SecretKey: 1})
			backend.Send(&pgproto3.ReadyForQuery{TxStatus: 'I'})
			return backend.Flush()
		case *pgproto3.SSLRequest, *pgproto3.GSSEncRequest:
			if _, err := conn.Write([]byte("N")); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected startup message %T", startup)
		}
	}
}

func (f *FakePrimary) answer(backend *pgproto3.Backend, query string) error {
	switch {
	case strings.HasPrefix(query, "IDENTIFY_SYSTEM"):
		sendRow(backend, "IDENTIFY_SYSTEM",
			[]string{"systemid", "timeline", "xlogpos", "dbname"},
			[]string{f.SystemID, strconv.Itoa(f.Timeline), f.XLogPos, f.DBName},
		)
	case strings.HasPrefix(query, "CREATE_REPLICATION_SLOT"):
		fields := strings.Fields(query)
		sendRow(backend, "CREATE_REPLICATION_SLOT",
			[]string{"slot_name", "consistent_point", "snapshot_name", "output_plugin"},
			[]string{fields[1], f.XLogPos, "", ""},
		)
	case strings.HasPrefix(query, "START_REPLICATION"):
		backend.Send(&pgproto3.CopyBothResponse{})
		for _, p := range f.Payloads {
			backend.Send(&pgproto3.CopyData{Data: p})
		}
		if f.EndStream {
			backend.Send(&pgproto3.CopyDone{})
		}
	default:
		backend.Send(&pgproto3.ErrorResponse{Severity: "ERROR", Code: "42601", Message: "unsupported command: " + query})
		backend.Send(&pgproto3.ReadyForQuery{TxStatus: 'I'})
	}
	return backend.Flush()
}

func sendRow(backend *pgproto3.Backend, tag string, columns, values []string) {
	fields := make([]pgproto3.FieldDescription, len(columns))
	for i, c := range columns {
		fields[i] = pgproto3.FieldDescription{Name: []byte(c), DataTypeOID: 25, DataTypeSize: -1, TypeModifier: -1}
	}
	row := make([][]byte, len(values))
	for i, v := range values {
		row[i] = []byte(v)
	}

	backend.Send(&pgproto3.RowDescription{Fields: fields})
	backend.Send(&pgproto3.DataRow{Values: row})
	backend.Send(&pgproto3.CommandComplete{CommandTag: []byte(tag)})
	backend.Send(&pgproto3.ReadyForQuery{TxStatus: 'I'})
}

// KeepaliveMessage encodes a primary keepalive CopyData payload.
func KeepaliveMessage(walEnd uint64, replyRequested bool) []byte {
	buf := make([]byte, 18)
	buf[0] = 'k'
	binary.BigEndian.PutUint64(buf[1:9], walEnd)
	binary.BigEndian.PutUint64(buf[9:17], 788_253_912_978_432)
	if replyRequested {
		buf[17] = 1
	}
	return buf
}
