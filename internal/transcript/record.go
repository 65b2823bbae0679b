// Package transcript records the payloads exchanged during a session.
//
// A transcript is a stream of length-delimited records in protobuf wire
// format:
//
//	1: direction (varint)
//	2: time (google.protobuf.Timestamp)
//	3: payload (bytes)
package transcript

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Direction tells whether a payload was sent or received
type Direction int

const (
	DirectionSent Direction = iota + 1
	DirectionReceived
)

// String returns the string representation of Direction
func (d Direction) String() string {
	switch d {
	case DirectionSent:
		return "SENT"
	case DirectionReceived:
		return "RECEIVED"
	default:
		return "UNKNOWN"
	}
}

const (
	fieldDirection protowire.Number = 1
	fieldTime      protowire.Number = 2
	fieldPayload   protowire.Number = 3
)

// Record is one payload crossing the connection.
type Record struct {
	Direction Direction
	Time      time.Time
	Payload   []byte
}

// Encode encodes the record into protobuf wire format
func (r *Record) Encode() ([]byte, error) {
	ts, err := proto.Marshal(timestamppb.New(r.Time))
	if err != nil {
		return nil, fmt.Errorf("failed to encode record time: %w", err)
	}

	var b []byte
	b = protowire.AppendTag(b, fieldDirection, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Direction))
	b = protowire.AppendTag(b, fieldTime, protowire.BytesType)
	b = protowire.AppendBytes(b, ts)
	b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
	b = protowire.AppendBytes(b, r.Payload)
	return b, nil
}

// Decode decodes protobuf wire bytes into the record.
// Unknown fields are skipped.
func (r *Record) Decode(data []byte) error {
	*r = Record{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("failed to decode record: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldDirection && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("failed to decode direction: %w", protowire.ParseError(n))
			}
			r.Direction = Direction(v)
			data = data[n:]
		case num == fieldTime && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("failed to decode time: %w", protowire.ParseError(n))
			}
			var ts timestamppb.Timestamp
			if err := proto.Unmarshal(v, &ts); err != nil {
				return fmt.Errorf("failed to decode time: %w", err)
			}
			r.Time = ts.AsTime()
			data = data[n:]
		case num == fieldPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("failed to decode payload: %w", protowire.ParseError(n))
			}
			r.Payload = append([]byte(nil), v...)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("failed to skip field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}
