//go:build !unix

package transport

import (
	"errors"
	"net"
	"os"
	"syscall"
	"time"
)

// pollWindow bounds how long a poll may wait where raw non-blocking reads
// are unavailable.
const pollWindow = time.Millisecond

func pollRead(conn net.Conn, _ syscall.RawConn, buf []byte) (int, error) {
	if err := conn.SetReadDeadline(time.Now().Add(pollWindow)); err != nil {
		return 0, err
	}
	defer conn.SetReadDeadline(time.Time{})

	n, err := conn.Read(buf)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return n, ErrWouldBlock
	}
	return n, err
}
