package echo

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

type protocolType int

const (
	protocolTCP protocolType = iota
	protocolHTTP
)

// detectWindow bounds how long detection waits for a full method prefix.
// Raw TCP peers may send fewer than four bytes and then wait for the echo.
const detectWindow = 200 * time.Millisecond

var httpMethods = [][]byte{
	[]byte("GET "),
	[]byte("POST"),
	[]byte("PUT "),
	[]byte("HEAD"),
	[]byte("OPTI"),
	[]byte("PATC"),
	[]byte("DELE"),
	[]byte("CONN"),
}

// detectProtocol peeks at the first bytes to tell HTTP requests apart from
// raw TCP streams. The returned reader still holds the peeked bytes.
func detectProtocol(conn net.Conn) (protocolType, *bufio.Reader, error) {
	reader := bufio.NewReader(conn)

	if err := conn.SetReadDeadline(time.Now().Add(detectWindow)); err != nil {
		return protocolTCP, reader, err
	}
	peek, err := reader.Peek(4)
	if derr := conn.SetReadDeadline(time.Time{}); derr != nil {
		return protocolTCP, reader, derr
	}

	if err != nil {
		// Short prefix: cannot be an HTTP request line.
		if errors.Is(err, os.ErrDeadlineExceeded) || (errors.Is(err, io.EOF) && len(peek) > 0) {
			return protocolTCP, reader, nil
		}
		return protocolTCP, reader, err
	}

	for _, method := range httpMethods {
		if bytes.HasPrefix(peek, method) {
			return protocolHTTP, reader, nil
		}
	}
	return protocolTCP, reader, nil
}

// bufferedConn wraps a net.Conn with a bufio.Reader to preserve peeked data
type bufferedConn struct {
	net.Conn
	reader *bufio.Reader
}

func (bc *bufferedConn) Read(p []byte) (int, error) {
	return bc.reader.Read(p)
}

// singleConnListener is a net.Listener that returns a single connection
type singleConnListener struct {
	conn net.Conn
	once sync.Once
}

func (l *singleConnListener) Accept() (net.Conn, error) {
	var c net.Conn
	l.once.Do(func() {
		c = l.conn
	})
	if c != nil {
		return c, nil
	}
	return nil, io.EOF
}

func (l *singleConnListener) Close() error {
	return nil
}

func (l *singleConnListener) Addr() net.Addr {
	return l.conn.LocalAddr()
}
