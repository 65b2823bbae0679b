// Package session runs the interactive client loop.
//
// A Session owns one connection and the receiving end of the command queue.
// Each iteration applies at most one queued command, polls the connection
// once, then idles for a fixed interval. Only a quit command ends the loop.
package session

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"time"

	"github.com/omochice/toy-socket-client/internal/queue"
	"github.com/omochice/toy-socket-client/internal/transcript"
	"github.com/omochice/toy-socket-client/internal/transport"
)

const (
	// BufferSize is the capacity of the receive buffer.
	BufferSize = 512

	// DefaultInterval is the idle delay between iterations.
	DefaultInterval = 10 * time.Millisecond
)

// ErrInputClosed is returned by Run when the input producer has stopped.
// The loop cannot make progress without it.
var ErrInputClosed = errors.New("session: input producer stopped")

// State is the loop state
type State int

const (
	StateRunning State = iota
	StateTerminated
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// Config holds the optional collaborators of a Session.
type Config struct {
	// Interval is the idle delay after each iteration.
	Interval time.Duration

	// Out receives user-facing feedback. Defaults to os.Stdout.
	Out io.Writer

	// Logger receives error reports. Defaults to the standard logger.
	Logger *log.Logger

	// Transcript, when set, records every payload sent and received.
	Transcript *transcript.Writer
}

// DefaultConfig returns the configuration used by the client binary.
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Out:      os.Stdout,
		Logger:   log.Default(),
	}
}

// Session is the client loop. It is not safe for concurrent use; the
// goroutine calling Run owns the connection.
type Session struct {
	conn   transport.Conn
	queue  *queue.Queue
	cfg    Config
	buf    [BufferSize]byte
	state  State
	eof    bool
	shut   bool
	closed bool
}

// New creates a Session over conn, consuming commands from q.
func New(conn transport.Conn, q *queue.Queue, cfg Config) *Session {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Session{
		conn:  conn,
		queue: q,
		cfg:   cfg,
		state: StateRunning,
	}
}

// State returns the current loop state.
func (s *Session) State() State {
	return s.state
}

// Run iterates until a quit command is processed, the input producer stops,
// or ctx is done. The connection is released before Run returns.
func (s *Session) Run(ctx context.Context) error {
	defer s.release()

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		if err := s.Step(ctx); err != nil {
			// The producer closes the queue when cancelled too.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		if s.state == StateTerminated {
			return nil
		}

		timer.Reset(s.cfg.Interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Step performs one dispatch step followed by one poll step. A step that
// terminates the loop skips the poll. Step does nothing once terminated.
func (s *Session) Step(ctx context.Context) error {
	if s.state == StateTerminated {
		return nil
	}
	if err := s.Dispatch(ctx); err != nil {
		return err
	}
	if s.state == StateTerminated {
		return nil
	}
	s.Poll()
	return nil
}

// release closes the connection exactly once.
func (s *Session) release() {
	if s.closed {
		return
	}
	s.closed = true
	if err := s.conn.Close(); err != nil && !s.shut {
		s.cfg.Logger.Printf("Error closing connection: %v", err)
	}
}

func (s *Session) record(dir transcript.Direction, payload []byte) {
	if s.cfg.Transcript == nil {
		return
	}
	if err := s.cfg.Transcript.Append(dir, payload); err != nil {
		s.cfg.Logger.Printf("Error recording transcript: %v", err)
	}
}
