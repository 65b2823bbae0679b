// Package input reads console input on its own goroutine and forwards it to
// the client loop through a queue.
package input

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"unicode/utf8"

	"github.com/omochice/toy-socket-client/internal/queue"
)

// ChunkSize is the maximum number of bytes requested per read.
const ChunkSize = 16

// MaxLineSize bounds the bytes buffered while waiting for a newline. Longer
// lines are discarded up to and including their newline.
const MaxLineSize = 4096

// DecodeError reports input that is not valid UTF-8.
type DecodeError struct {
	Data []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("input is not valid UTF-8 (%d bytes)", len(e.Data))
}

// LineTooLongError reports a line that exceeded MaxLineSize before its newline.
type LineTooLongError struct {
	Size int
}

func (e *LineTooLongError) Error() string {
	return fmt.Sprintf("input line exceeds %d bytes (%d buffered)", MaxLineSize, e.Size)
}

// Producer splits an input stream into lines and pushes each line onto a
// queue. Lines keep their trailing newline.
type Producer struct {
	r      io.Reader
	q      *queue.Queue
	logger *log.Logger
}

// NewProducer creates a Producer reading from r and pushing onto q.
// A nil logger falls back to the standard logger.
func NewProducer(r io.Reader, q *queue.Queue, logger *log.Logger) *Producer {
	if logger == nil {
		logger = log.Default()
	}
	return &Producer{
		r:      r,
		q:      q,
		logger: logger,
	}
}

// Start runs the producer on a new goroutine and returns a channel that
// receives its result once it stops.
func (p *Producer) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
	}()
	return done
}

// Run reads until a read error, ctx cancellation, or the queue's receiver
// going away, and closes the queue on return so the receiver can tell the
// producer has stopped.
//
// End of input is not a failure: the remaining partial line is pushed and
// Run waits for ctx without closing the queue, so the client keeps running
// until it is told to quit.
//
// A read already in progress is not interrupted by ctx; close the
// underlying reader to unblock it.
func (p *Producer) Run(ctx context.Context) error {
	defer p.q.Close()

	err := p.read(ctx)
	if errors.Is(err, io.EOF) {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

// read returns io.EOF once the input is exhausted and every line has been
// forwarded.
func (p *Producer) read(ctx context.Context) error {
	buf := make([]byte, ChunkSize)
	var pending []byte
	discarding := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := p.r.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for {
				i := bytes.IndexByte(pending, '\n')
				if i < 0 {
					break
				}
				line := pending[:i+1]
				pending = pending[i+1:]
				if discarding {
					discarding = false
					continue
				}
				if len(line) > MaxLineSize {
					p.logger.Printf("Discarding input: %v", &LineTooLongError{Size: len(line)})
					continue
				}
				if perr := p.push(line); perr != nil {
					return perr
				}
			}
			if len(pending) > MaxLineSize {
				if !discarding {
					p.logger.Printf("Discarding input: %v", &LineTooLongError{Size: len(pending)})
				}
				pending = nil
				discarding = true
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(pending) > 0 && !discarding {
					if perr := p.push(pending); perr != nil {
						return perr
					}
				}
				return io.EOF
			}
			p.logger.Printf("Error reading from input stream: %v", err)
			return fmt.Errorf("failed to read input: %w", err)
		}
	}
}

// push forwards one line. Lines that fail to decode are logged and skipped.
func (p *Producer) push(line []byte) error {
	if !utf8.Valid(line) {
		data := make([]byte, len(line))
		copy(data, line)
		p.logger.Printf("Discarding input: %v", &DecodeError{Data: data})
		return nil
	}

	if err := p.q.Push(string(line)); err != nil {
		return fmt.Errorf("failed to forward input: %w", err)
	}
	return nil
}
