package trace

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/logging"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/shared/id"
)

// Supported compression codecs.
const (
	CodecGzip = "gzip"
	CodecZstd = "zstd"
)

// ErrUnknownCodec is returned for a codec name other than gzip or zstd.
var ErrUnknownCodec = errors.New("unknown trace codec")

// ErrClosed is returned when a closed recorder is closed again.
var ErrClosed = errors.New("trace recorder already closed")

// Line is one persisted trace record. Kernel event fields are inlined.
type Line struct {
	ID  id.EventID `json:"id"`
	Run id.RunID   `json:"run"`
	kernel.Event
}

// Summary describes a finished trace stream.
type Summary struct {
	Run        id.RunID `json:"run"`
	Path       string   `json:"path"`
	Codec      string   `json:"codec"`
	Lines      uint64   `json:"lines"`
	RawBytes   int64    `json:"raw_bytes"`
	Compressed int64    `json:"compressed_bytes"`
	Digest     string   `json:"digest"`
}

// Recorder writes kernel events to a compressed trace file. Record runs
// under the kernel lock; writes go through the compressor's in-memory
// buffering, and the first write error sticks and silences the rest.
type Recorder struct {
	mu     sync.Mutex
	runID  id.RunID
	log    *logging.Logger
	file   *os.File
	count  *countingWriter
	comp   io.WriteCloser
	digest hash.Hash
	codec  string

	lines    uint64
	rawBytes int64
	closed   bool
	err      error
}

var _ kernel.EventSink = (*Recorder)(nil)

// Open creates a trace file at path using the given codec.
func Open(path, codec string, log *logging.Logger) (*Recorder, error) {
	if log == nil {
		log = logging.NewNop()
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trace file: %w", err)
	}

	digest, err := blake2b.New256(nil)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("init trace digest: %w", err)
	}

	count := &countingWriter{w: file}
	sink := io.MultiWriter(count, digest)

	var comp io.WriteCloser
	switch codec {
	case CodecGzip:
		comp = gzip.NewWriter(sink)
	case CodecZstd:
		enc, err := zstd.NewWriter(sink)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("init zstd writer: %w", err)
		}
		comp = enc
	default:
		file.Close()
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, codec)
	}

	return &Recorder{
		runID:  id.NewRunID(),
		log:    log.Named("trace"),
		file:   file,
		count:  count,
		comp:   comp,
		digest: digest,
		codec:  codec,
	}, nil
}

// RunID returns the id stamped on every line of this trace.
func (r *Recorder) RunID() id.RunID { return r.runID }

// Record encodes one kernel event as a trace line.
func (r *Recorder) Record(ev kernel.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.err != nil {
		return
	}

	line := Line{ID: id.NewEventID(), Run: r.runID, Event: ev}
	data, err := sonic.Marshal(line)
	if err != nil {
		r.fail(fmt.Errorf("encode trace line: %w", err))
		return
	}
	data = append(data, '\n')

	if _, err := r.comp.Write(data); err != nil {
		r.fail(fmt.Errorf("write trace line: %w", err))
		return
	}
	r.lines++
	r.rawBytes += int64(len(data))
}

// fail records the first error and logs it once.
func (r *Recorder) fail(err error) {
	r.err = err
	r.log.Error("Trace recording stopped", zap.Error(err))
}

// Err returns the sticky write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close flushes the compressor, closes the file, and returns the
// stream summary.
func (r *Recorder) Close() (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Summary{}, ErrClosed
	}
	r.closed = true

	if err := r.comp.Close(); err != nil && r.err == nil {
		r.err = fmt.Errorf("flush trace: %w", err)
	}
	if err := r.file.Close(); err != nil && r.err == nil {
		r.err = fmt.Errorf("close trace file: %w", err)
	}

	sum := Summary{
		Run:        r.runID,
		Path:       r.file.Name(),
		Codec:      r.codec,
		Lines:      r.lines,
		RawBytes:   r.rawBytes,
		Compressed: r.count.n,
		Digest:     hex.EncodeToString(r.digest.Sum(nil)),
	}
	r.log.Info("Trace closed",
		zap.String("path", sum.Path),
		zap.Uint64("lines", sum.Lines),
		zap.Int64("raw_bytes", sum.RawBytes),
		zap.Int64("compressed_bytes", sum.Compressed))
	return sum, r.err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
