package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/omochice/toy-socket-client/internal/command"
	"github.com/omochice/toy-socket-client/internal/queue"
	"github.com/omochice/toy-socket-client/internal/transcript"
)

// Dispatch applies at most one pending command. It never waits for a
// command to arrive; the only wait is the extra input line taken by the
// send-custom command.
//
// It returns ErrInputClosed once the producer has stopped and every queued
// command was consumed. Socket failures are reported and swallowed.
func (s *Session) Dispatch(ctx context.Context) error {
	item, err := s.queue.TryPop()
	switch {
	case errors.Is(err, queue.ErrEmpty):
		return nil
	case errors.Is(err, queue.ErrClosed):
		return ErrInputClosed
	case err != nil:
		return fmt.Errorf("failed to read command: %w", err)
	}

	cmd := command.Parse(item)
	if cmd.IsEmpty() {
		return nil
	}

	switch cmd.Code {
	case command.CodeQuit:
		fmt.Fprintln(s.cfg.Out, "Quitting!")
		s.state = StateTerminated
	case command.CodeGreet:
		fmt.Fprintln(s.cfg.Out, "Say hello")
		s.send([]byte(command.Greeting))
	case command.CodeDisconnect:
		fmt.Fprintln(s.cfg.Out, "Disconnecting...")
		s.shutdown()
	case command.CodeSendCustom:
		fmt.Fprintln(s.cfg.Out, "Send custom string")
		s.sendCustom(ctx)
	default:
		fmt.Fprintf(s.cfg.Out, "Command not recognized. Received: %s\n", cmd.Text)
	}
	return nil
}

// send writes p as a single payload.
func (s *Session) send(p []byte) {
	n, err := s.conn.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		s.cfg.Logger.Printf("Error writing to stream: %v", err)
		return
	}
	s.record(transcript.DirectionSent, p)
}

// sendCustom waits for the next input line and writes it unchanged.
func (s *Session) sendCustom(ctx context.Context) {
	line, err := s.queue.Pop(ctx)
	if err != nil {
		s.cfg.Logger.Printf("Error reading custom string: %v", err)
		return
	}
	s.send([]byte(line))
}

// shutdown closes both directions of the connection. A partial failure
// leaves the connection as it is.
func (s *Session) shutdown() {
	if err := s.conn.Shutdown(); err != nil {
		s.cfg.Logger.Printf("Error shutting down stream: %v", err)
		return
	}
	s.shut = true
}
