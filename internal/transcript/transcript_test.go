package transcript_test

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
	"time"

	"github.com/omochice/toy-socket-client/internal/transcript"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestWriterReader_PreservesOrder(t *testing.T) {
	var buf bytes.Buffer
	w := transcript.NewWriter(&buf)

	base := time.Date(2024, 5, 1, 12, 0, 0, 123, time.UTC)
	records := []transcript.Record{
		{Direction: transcript.DirectionSent, Time: base, Payload: []byte("Hello!")},
		{Direction: transcript.DirectionReceived, Time: base.Add(time.Second), Payload: []byte("Hello!")},
		{Direction: transcript.DirectionSent, Time: base.Add(2 * time.Second), Payload: []byte{}},
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	r := transcript.NewReader(&buf)
	for i, want := range records {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("Next() #%d error = %v", i, err)
		}
		if got.Direction != want.Direction {
			t.Errorf("record %d Direction = %v, want %v", i, got.Direction, want.Direction)
		}
		if !got.Time.Equal(want.Time) {
			t.Errorf("record %d Time = %v, want %v", i, got.Time, want.Time)
		}
		if !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("record %d Payload = %q, want %q", i, got.Payload, want.Payload)
		}
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() at end error = %v, want %v", err, io.EOF)
	}
}

func TestWriter_AppendStampsTime(t *testing.T) {
	var buf bytes.Buffer
	w := transcript.NewWriter(&buf)

	before := time.Now()
	if err := w.Append(transcript.DirectionReceived, []byte("x")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	rec, err := transcript.NewReader(&buf).Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if rec.Time.Before(before.Add(-time.Second)) {
		t.Errorf("Time = %v, expected close to %v", rec.Time, before)
	}
}

func TestReader_Truncated(t *testing.T) {
	var buf bytes.Buffer
	w := transcript.NewWriter(&buf)
	if err := w.Append(transcript.DirectionSent, []byte("payload")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	data := buf.Bytes()[:buf.Len()-2]
	_, err := transcript.NewReader(bytes.NewReader(data)).Next()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Next() error = %v, want %v", err, io.ErrUnexpectedEOF)
	}
}

func TestReader_SizeWithoutBody(t *testing.T) {
	data := protowire.AppendVarint(nil, 8)
	_, err := transcript.NewReader(bytes.NewReader(data)).Next()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Next() error = %v, want %v", err, io.ErrUnexpectedEOF)
	}
}

func TestReader_KeepsReadError(t *testing.T) {
	boom := errors.New("boom")
	prefix := append(protowire.AppendVarint(nil, 8), "abc"...)
	r := io.MultiReader(bytes.NewReader(prefix), iotest.ErrReader(boom))

	_, err := transcript.NewReader(r).Next()
	if !errors.Is(err, boom) {
		t.Errorf("Next() error = %v, want %v", err, boom)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Next() error = %v, read failure reported as truncation", err)
	}
}

func TestRecord_DecodeSkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(transcript.DirectionReceived))
	b = protowire.AppendTag(b, 9, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("data"))

	var rec transcript.Record
	if err := rec.Decode(b); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if rec.Direction != transcript.DirectionReceived {
		t.Errorf("Direction = %v, want %v", rec.Direction, transcript.DirectionReceived)
	}
	if string(rec.Payload) != "data" {
		t.Errorf("Payload = %q, want %q", rec.Payload, "data")
	}
}

func TestRecord_DecodeMalformed(t *testing.T) {
	var rec transcript.Record
	if err := rec.Decode([]byte{0x1a, 0x05, 'a'}); err == nil {
		t.Error("expected error for truncated payload field")
	}
}

func TestDirection_String(t *testing.T) {
	tests := []struct {
		dir  transcript.Direction
		want string
	}{
		{transcript.DirectionSent, "SENT"},
		{transcript.DirectionReceived, "RECEIVED"},
		{transcript.Direction(0), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.dir.String(); got != tt.want {
			t.Errorf("Direction(%d).String() = %q, want %q", int(tt.dir), got, tt.want)
		}
	}
}
