package transcript

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// MaxRecordSize bounds a single decoded record.
const MaxRecordSize = 4 << 20

// Writer appends length-delimited records to an io.Writer.
// It is not safe for concurrent use.
type Writer struct {
	w   io.Writer
	now func() time.Time
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, now: time.Now}
}

// Append records payload with the current time.
func (w *Writer) Append(dir Direction, payload []byte) error {
	return w.Write(Record{Direction: dir, Time: w.now(), Payload: payload})
}

// Write appends rec.
func (w *Writer) Write(rec Record) error {
	data, err := rec.Encode()
	if err != nil {
		return err
	}

	frame := protowire.AppendVarint(make([]byte, 0, len(data)+binary.MaxVarintLen64), uint64(len(data)))
	frame = append(frame, data...)
	if _, err := w.w.Write(frame); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Reader reads records written by Writer.
type Reader struct {
	br *bufio.Reader
}

// NewReader creates a Reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Next returns the next record, or io.EOF at a clean end of stream.
func (r *Reader) Next() (Record, error) {
	size, err := binary.ReadUvarint(r.br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to read record size: %w", err)
	}
	if size > MaxRecordSize {
		return Record{}, fmt.Errorf("record size %d exceeds limit %d", size, MaxRecordSize)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r.br, data); err != nil {
		// A size prefix without its body is a truncated stream.
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Record{}, fmt.Errorf("failed to read record: %w", err)
	}

	var rec Record
	if err := rec.Decode(data); err != nil {
		return Record{}, err
	}
	return rec, nil
}
