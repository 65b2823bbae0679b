package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

const (
	// readinessWindow bounds how long Poll waits for the first byte of a frame.
	readinessWindow = time.Millisecond

	// frameWindow bounds how long Poll waits for the rest of a frame once its
	// first byte has arrived.
	frameWindow = 500 * time.Millisecond

	// maxFrameSize bounds the payload of a single frame.
	maxFrameSize = 16 << 20
)

// WebSocketConn adapts a client WebSocket connection to Conn using
// gobwas/ws. Every Write is sent as one binary message; messages larger
// than the poll buffer are handed out over several polls.
type WebSocketConn struct {
	conn    net.Conn
	br      *bufio.Reader
	pending []byte
	closed  bool
}

// DialWebSocket performs the WebSocket handshake against urlStr.
func DialWebSocket(ctx context.Context, urlStr string, timeout time.Duration) (*WebSocketConn, error) {
	dialer := ws.Dialer{Timeout: timeout}
	conn, br, _, err := dialer.Dial(ctx, urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	return NewWebSocketConn(conn, br), nil
}

// NewWebSocketConn wraps a connection that already completed the client
// handshake. br may be nil or hold bytes the server sent right after it.
func NewWebSocketConn(conn net.Conn, br *bufio.Reader) *WebSocketConn {
	if br == nil {
		br = bufio.NewReader(conn)
	}
	return &WebSocketConn{conn: conn, br: br}
}

// Write implements Conn.
func (wc *WebSocketConn) Write(p []byte) (int, error) {
	if err := wsutil.WriteClientBinary(wc.conn, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Poll implements Conn.
// Each call reads at most one frame. Control frames are answered and
// reported as ErrWouldBlock; every data frame is handed out as it arrives,
// so a fragmented message spans several polls.
func (wc *WebSocketConn) Poll(buf []byte) (int, error) {
	if len(wc.pending) > 0 {
		return wc.drain(buf), nil
	}
	if wc.closed {
		return 0, io.EOF
	}

	if wc.br.Buffered() == 0 {
		if err := wc.conn.SetReadDeadline(time.Now().Add(readinessWindow)); err != nil {
			return 0, err
		}
		_, err := wc.br.Peek(1)
		if rerr := wc.conn.SetReadDeadline(time.Time{}); rerr != nil && err == nil {
			err = rerr
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, ErrWouldBlock
		}
		if err != nil {
			return 0, err
		}
	}

	if err := wc.conn.SetReadDeadline(time.Now().Add(frameWindow)); err != nil {
		return 0, err
	}
	defer wc.conn.SetReadDeadline(time.Time{})

	hdr, err := ws.ReadHeader(wc.br)
	if err != nil {
		return 0, fmt.Errorf("failed to read frame header: %w", err)
	}
	if hdr.Length > maxFrameSize {
		return 0, fmt.Errorf("frame of %d bytes exceeds limit %d", hdr.Length, maxFrameSize)
	}

	if hdr.OpCode.IsControl() {
		handle := wsutil.ControlFrameHandler(wc.conn, ws.StateClientSide)
		if err := handle(hdr, io.LimitReader(wc.br, hdr.Length)); err != nil {
			var closed wsutil.ClosedError
			if errors.As(err, &closed) {
				wc.closed = true
				return 0, io.EOF
			}
			return 0, fmt.Errorf("failed to handle control frame: %w", err)
		}
		return 0, ErrWouldBlock
	}

	data := make([]byte, hdr.Length)
	if _, err := io.ReadFull(wc.br, data); err != nil {
		return 0, fmt.Errorf("failed to read frame payload: %w", err)
	}
	if hdr.Masked {
		ws.Cipher(data, hdr.Mask, 0)
	}
	if len(data) == 0 {
		return 0, ErrWouldBlock
	}

	wc.pending = data
	return wc.drain(buf), nil
}

func (wc *WebSocketConn) drain(buf []byte) int {
	n := copy(buf, wc.pending)
	wc.pending = wc.pending[n:]
	if len(wc.pending) == 0 {
		wc.pending = nil
	}
	return n
}

// Shutdown implements Conn.
// Sends a close frame, then shuts down the underlying stream when it
// supports half-close.
func (wc *WebSocketConn) Shutdown() error {
	body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
	err := wsutil.WriteClientMessage(wc.conn, ws.OpClose, body)

	type halfCloser interface {
		CloseRead() error
		CloseWrite() error
	}
	if hc, ok := wc.conn.(halfCloser); ok {
		err = errors.Join(err, hc.CloseWrite(), hc.CloseRead())
	}
	return err
}

// Close implements Conn.
func (wc *WebSocketConn) Close() error {
	return wc.conn.Close()
}

// RemoteAddr implements Conn.
func (wc *WebSocketConn) RemoteAddr() net.Addr {
	return wc.conn.RemoteAddr()
}
