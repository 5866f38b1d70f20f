package cli

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/go-utils/cliutil"
	"github.com/julianstephens/go-utils/jsonutil"

	"github.com/julianstephens/pgdig/internal/pgdig/capture"
	"github.com/julianstephens/pgdig/internal/pgdig/config"
	"github.com/julianstephens/pgdig/internal/pgdig/monitor"
	"github.com/julianstephens/pgdig/internal/pgdig/replication"
	"github.com/julianstephens/pgdig/internal/pgdig/xlog"
)

// DecodeCmd decodes one XLogData payload read from a file.
type DecodeCmd struct {
	File           string `arg:"" help:"File holding the CopyData payload" type:"existingfile"`
	Offset         int    `help:"Offset of the XLogData header (1 skips the 'w' tag)" default:"1"`
	Layout         string `help:"Record header layout (aligned, packed); defaults to the config"`
	VerifyChecksum bool   `help:"Verify the record checksum when the whole record is present"`
	Hex            bool   `help:"Input is hex text rather than raw bytes"`
	JSON           bool   `help:"Print JSON instead of the text summary" name:"json"`
}

func (c *DecodeCmd) Run(rc *RunContext) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	if c.Hex {
		data, err = hex.DecodeString(strings.Join(strings.Fields(string(data)), ""))
		if err != nil {
			cliutil.PrintError(fmt.Sprintf("%s is not valid hex: %v", c.File, err))
			return err
		}
	}

	decoder := rc.Options.Decoder()
	if c.Layout != "" {
		layout, err := xlog.ParseRecordLayout(c.Layout)
		if err != nil {
			return err
		}
		decoder.Layout = layout
	}
	if c.VerifyChecksum {
		decoder.VerifyChecksum = true
	}

	msg, err := decoder.Decode(data, c.Offset)
	if err != nil {
		if de, ok := xlog.AsDecodeError(err); ok {
			cliutil.PrintError(fmt.Sprintf("decode failed (%s at %d): %v", de.Kind, de.At, err))
		}
		return err
	}
	rc.logger().Debug("decoded payload", "file", c.File, "length", len(data), "blocks", len(msg.Blocks))

	return printMessage(rc, msg, c.JSON)
}

// LsnCmd converts a log position between its text and integer forms.
type LsnCmd struct {
	Value string `arg:"" help:"Log position as H/L hex or a decimal integer"`
}

func (c *LsnCmd) Run(rc *RunContext) error {
	var pos xlog.LogPosition
	if strings.Contains(c.Value, "/") {
		p, err := xlog.ParseLogPosition(c.Value)
		if err != nil {
			return err
		}
		pos = p
	} else {
		v, err := strconv.ParseUint(c.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", xlog.ErrMalformedLogPosition, c.Value)
		}
		pos = xlog.LogPositionFromUint64(v)
	}

	_, err := fmt.Fprintf(rc.out(), "%s %d\n", pos, pos.Uint64())
	return err
}

// RmgrCmd lists the resource manager registry or looks up one id.
type RmgrCmd struct {
	ID string `arg:"" optional:"" help:"Resource manager id"`
}

func (c *RmgrCmd) Run(rc *RunContext) error {
	if c.ID == "" {
		for _, id := range xlog.ResourceManagers() {
			if _, err := fmt.Fprintf(rc.out(), "%2d %s\n", uint8(id), id); err != nil {
				return err
			}
		}
		return nil
	}

	v, err := strconv.ParseUint(c.ID, 10, 8)
	if err != nil {
		return fmt.Errorf("invalid resource manager id %q: %w", c.ID, err)
	}
	name, err := xlog.LookupResourceManager(xlog.ResourceManagerID(v))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(rc.out(), "%2d %s\n", v, name)
	return err
}

// StreamCmd connects to a primary and decodes WAL until interrupted.
// Flags override the config file.
type StreamCmd struct {
	ConnString     string        `help:"Replication connection string" envvar:"PGDIG_CONN_STRING"`
	Slot           string        `help:"Physical replication slot" envvar:"PGDIG_SLOT"`
	CreateSlot     bool          `help:"Create the slot before streaming"`
	Start          string        `help:"Start position (H/L); defaults to the server's current position"`
	Layout         string        `help:"Record header layout (aligned, packed)"`
	VerifyChecksum bool          `help:"Verify record checksums"`
	StatusInterval time.Duration `help:"Standby status update interval"`
	Capture        string        `help:"Also record every received payload to this capture file" type:"path"`
	JSON           bool          `help:"Print messages as JSON" name:"json"`
}

func (c *StreamCmd) Run(rc *RunContext) error {
	opts := rc.Options
	if c.ConnString != "" {
		opts.ConnString = c.ConnString
	}
	if c.Slot != "" {
		opts.Slot = c.Slot
	}
	if c.CreateSlot {
		opts.CreateSlot = true
	}
	if c.Start != "" {
		pos, err := xlog.ParseLogPosition(c.Start)
		if err != nil {
			return err
		}
		opts.StartPosition = pos
	}
	if c.Layout != "" {
		layout, err := xlog.ParseRecordLayout(c.Layout)
		if err != nil {
			return err
		}
		opts.Layout = layout
	}
	if c.VerifyChecksum {
		opts.VerifyChecksum = true
	}
	if c.StatusInterval > 0 {
		opts.StatusInterval = c.StatusInterval
	}

	ctx := rc.ctx()
	lg := rc.logger()

	stream, err := replication.Connect(ctx, opts, lg)
	if err != nil {
		cliutil.PrintError(fmt.Sprintf("Unable to connect: %v", err))
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stream.Close(closeCtx); err != nil {
			lg.Warn("failed to close replication connection", "error", err)
		}
	}()

	if err := stream.Start(ctx); err != nil {
		return err
	}

	var source monitor.Source = stream
	if c.Capture != "" {
		w, err := capture.Create(c.Capture)
		if err != nil {
			cliutil.PrintError(fmt.Sprintf("Unable to open capture %s: %v", c.Capture, err))
			return err
		}
		defer func() {
			if err := w.Close(); err != nil {
				lg.Warn("failed to close capture", "path", c.Capture, "error", err)
				return
			}
			lg.Info("capture closed", "path", c.Capture, "frames", w.Frames(), "bytes", w.Size())
		}()
		source = capture.NewTee(stream, w)
	}

	var printErr error
	m := monitor.New(source, opts.Decoder(),
		monitor.WithLogger(lg),
		monitor.WithHandler(func(msg xlog.DecodedMessage) {
			if err := printMessage(rc, msg, c.JSON); err != nil && printErr == nil {
				printErr = err
			}
		}),
	)

	err = m.Run(ctx)
	lg.Info("replication stopped", append(m.Stats().Fields(), "position", stream.Position().String())...)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		return err
	}
	return printErr
}

// DecodeCaptureCmd decodes every frame of a capture file written by stream --capture.
type DecodeCaptureCmd struct {
	File           string `arg:"" help:"Capture file" type:"existingfile"`
	Layout         string `help:"Record header layout (aligned, packed)"`
	VerifyChecksum bool   `help:"Verify record checksums"`
	JSON           bool   `help:"Print messages as JSON" name:"json"`
}

func (c *DecodeCaptureCmd) Run(rc *RunContext) error {
	decoder := rc.Options.Decoder()
	if c.Layout != "" {
		layout, err := xlog.ParseRecordLayout(c.Layout)
		if err != nil {
			return err
		}
		decoder.Layout = layout
	}
	if c.VerifyChecksum {
		decoder.VerifyChecksum = true
	}

	r, err := capture.Open(c.File)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	lg := rc.logger()
	var printErr error
	m := monitor.New(r, decoder,
		monitor.WithLogger(lg),
		monitor.WithHandler(func(msg xlog.DecodedMessage) {
			if err := printMessage(rc, msg, c.JSON); err != nil && printErr == nil {
				printErr = err
			}
		}),
	)

	err = m.Run(rc.ctx())
	lg.Info("capture decoded", append(m.Stats().Fields(), "path", c.File, "bytes", r.Offset())...)
	if capture.IsTruncation(err) {
		fe, _ := capture.AsFrameError(err)
		lg.Warn("capture ends in a torn frame", "path", c.File, "offset", fe.Offset)
		err = nil
	}
	if err != nil {
		if fe, ok := capture.AsFrameError(err); ok {
			cliutil.PrintError(fmt.Sprintf("capture frame at %d is %s", fe.Offset, fe.Kind))
		}
		return err
	}
	return printErr
}

// InitConfigCmd writes a default config file.
type InitConfigCmd struct {
	Path string `arg:"" optional:"" help:"Where to write the config (default ./pgdig.json)"`
}

func (c *InitConfigCmd) Run(rc *RunContext) error {
	configPath := c.Path
	if configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	if err := config.Create(configPath); err != nil {
		if errors.Is(err, config.ErrConfigAlreadyExists) {
			cliutil.PrintError(fmt.Sprintf("Config already exists at %s", configPath))
		}
		return err
	}

	rc.logger().Info("created config", "path", configPath)
	_, err := fmt.Fprintf(rc.out(), "created %s\n", configPath)
	return err
}

func printMessage(rc *RunContext, msg xlog.DecodedMessage, asJSON bool) error {
	if asJSON {
		data, err := jsonutil.Marshal(msg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(rc.out(), string(data))
		return err
	}
	_, err := fmt.Fprintln(rc.out(), msg.String())
	return err
}
