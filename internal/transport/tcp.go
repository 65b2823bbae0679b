package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// TCPConn adapts *net.TCPConn to Conn.
type TCPConn struct {
	conn *net.TCPConn
	raw  syscall.RawConn
}

// DialTCP establishes a TCP connection to address.
func DialTCP(ctx context.Context, address string, timeout time.Duration) (*TCPConn, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}

	tc, err := NewTCPConn(conn.(*net.TCPConn))
	if err != nil {
		conn.Close()
		return nil, err
	}
	return tc, nil
}

// NewTCPConn wraps an established TCP connection.
func NewTCPConn(conn *net.TCPConn) (*TCPConn, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("failed to access socket: %w", err)
	}
	return &TCPConn{conn: conn, raw: raw}, nil
}

// Write implements Conn.
// net.Conn writes either deliver the whole payload or return an error.
func (c *TCPConn) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

// Poll implements Conn.
func (c *TCPConn) Poll(buf []byte) (int, error) {
	return pollRead(c.conn, c.raw, buf)
}

// Shutdown implements Conn.
func (c *TCPConn) Shutdown() error {
	return errors.Join(c.conn.CloseWrite(), c.conn.CloseRead())
}

// Close implements Conn.
func (c *TCPConn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements Conn.
func (c *TCPConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
