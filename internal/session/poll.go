package session

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/omochice/toy-socket-client/internal/transcript"
	"github.com/omochice/toy-socket-client/internal/transport"
)

// Poll makes one non-blocking read attempt and displays what arrived.
// Invalid UTF-8 is shown with replacement characters.
func (s *Session) Poll() {
	if s.eof {
		return
	}

	n, err := s.conn.Poll(s.buf[:])
	switch {
	case errors.Is(err, transport.ErrWouldBlock):
		return
	case errors.Is(err, io.EOF):
		s.eof = true
		fmt.Fprintln(s.cfg.Out, "Connection closed")
		return
	case err != nil:
		s.cfg.Logger.Printf("Error reading from stream: %v", err)
		return
	case n == 0:
		return
	}

	data := s.buf[:n]
	text := strings.ToValidUTF8(string(data), "�")
	fmt.Fprintf(s.cfg.Out, "Received %d bytes: %s\n", n, text)
	s.record(transcript.DirectionReceived, data)
}
