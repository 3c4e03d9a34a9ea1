// Package output writes and reads the intermediate analysis stream.
//
// A stream is a zstd compressed sequence of msgp frames: one header, any
// number of records, and a trailer. The writer only makes the file visible
// under its final name on Commit, so a crashed or cancelled run leaves at
// most a .partial file behind. A stream without its trailer is rejected by
// the reader.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/tinylib/msgp/msgp"

	"github.com/yeren108/emt4j/internal/model"
)

// PartialSuffix is appended to the output path while a run is in progress.
const PartialSuffix = ".partial"

var (
	// ErrIncomplete marks a stream that ends before its trailer.
	ErrIncomplete = errors.New("incomplete analysis output")
	// ErrClosed is returned when writing after Commit or Abort.
	ErrClosed = errors.New("output writer closed")
)

// Writer appends records to a stream. It is not safe for concurrent use;
// the executor funnels every record through a single goroutine.
type Writer struct {
	path    string
	partial string
	f       *os.File
	zw      *zstd.Encoder
	mw      *msgp.Writer
	n       int
	closed  bool
}

// Create opens path+PartialSuffix and writes the header. A missing RunID is
// filled with a fresh UUID.
func Create(path string, h Header) (*Writer, error) {
	h.Format = FormatVersion
	if h.RunID == "" {
		h.RunID = uuid.NewString()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	partial := path + PartialSuffix
	f, err := os.OpenFile(partial, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(partial)
		return nil, fmt.Errorf("creating output: %w", err)
	}
	w := &Writer{path: path, partial: partial, f: f, zw: zw, mw: msgp.NewWriter(zw)}
	if err := w.frame(frameHeader, &h); err != nil {
		w.Abort()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return w, nil
}

// Path returns the final output path.
func (w *Writer) Path() string { return w.path }

// Count returns the number of records appended so far.
func (w *Writer) Count() int { return w.n }

// Append writes one record.
func (w *Writer) Append(rec model.Record) error {
	if w.closed {
		return ErrClosed
	}
	if err := w.frame(frameRecord, toWire(rec)); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	w.n++
	return nil
}

// Commit writes the trailer and moves the stream to its final path.
func (w *Writer) Commit() error {
	if w.closed {
		return ErrClosed
	}
	if err := w.frame(frameTrailer, &trailer{Complete: true, Records: w.n}); err != nil {
		w.Abort()
		return fmt.Errorf("writing trailer: %w", err)
	}
	if err := w.close(); err != nil {
		_ = os.Remove(w.partial)
		return err
	}
	if err := os.Rename(w.partial, w.path); err != nil {
		_ = os.Remove(w.partial)
		return fmt.Errorf("committing output: %w", err)
	}
	return nil
}

// Abort discards the partial stream. It is a no-op once the writer has been
// committed or aborted.
func (w *Writer) Abort() {
	if w.closed {
		return
	}
	_ = w.close()
	_ = os.Remove(w.partial)
}

func (w *Writer) close() error {
	w.closed = true
	err := w.mw.Flush()
	if cerr := w.zw.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = w.f.Sync()
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	return nil
}

func (w *Writer) frame(kind string, body msgp.Encodable) error {
	if err := w.mw.WriteArrayHeader(2); err != nil {
		return err
	}
	if err := w.mw.WriteString(kind); err != nil {
		return err
	}
	return body.EncodeMsg(w.mw)
}

// Scan reads the stream at path and calls fn for every record in order.
// It fails with ErrIncomplete unless the trailer is present and agrees
// with the number of records read.
func Scan(path string, fn func(model.Record) error) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, fmt.Errorf("%w: %w", ErrIncomplete, err)
	}
	defer dec.Close()
	r := msgp.NewReader(dec)

	kind, err := readFrameKind(r)
	if err != nil {
		return h, fmt.Errorf("%w: %w", ErrIncomplete, err)
	}
	if kind != frameHeader {
		return h, fmt.Errorf("%w: stream starts with %q", ErrIncomplete, kind)
	}
	if err := h.DecodeMsg(r); err != nil {
		return h, fmt.Errorf("%w: %w", ErrIncomplete, err)
	}
	if h.Format != FormatVersion {
		return h, fmt.Errorf("unsupported output format %d", h.Format)
	}

	n := 0
	for {
		kind, err := readFrameKind(r)
		if err != nil {
			return h, fmt.Errorf("%w: after %d records: %w", ErrIncomplete, n, err)
		}
		switch kind {
		case frameRecord:
			var rec wireRecord
			if err := rec.DecodeMsg(r); err != nil {
				return h, fmt.Errorf("%w: record %d: %w", ErrIncomplete, n, err)
			}
			n++
			if err := fn(rec.record()); err != nil {
				return h, err
			}
		case frameTrailer:
			var t trailer
			if err := t.DecodeMsg(r); err != nil {
				return h, fmt.Errorf("%w: %w", ErrIncomplete, err)
			}
			if !t.Complete || t.Records != n {
				return h, fmt.Errorf("%w: trailer reports %d records, read %d", ErrIncomplete, t.Records, n)
			}
			return h, nil
		default:
			return h, fmt.Errorf("%w: unknown frame %q", ErrIncomplete, kind)
		}
	}
}

// Read returns the header and every record of the stream at path.
func Read(path string) (Header, []model.Record, error) {
	var recs []model.Record
	h, err := Scan(path, func(r model.Record) error {
		recs = append(recs, r)
		return nil
	})
	if err != nil {
		return h, nil, err
	}
	return h, recs, nil
}

func readFrameKind(r *msgp.Reader) (string, error) {
	n, err := r.ReadArrayHeader()
	if err != nil {
		return "", err
	}
	if n != 2 {
		return "", fmt.Errorf("frame has %d elements", n)
	}
	return r.ReadString()
}
