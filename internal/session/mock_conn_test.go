package session_test

import (
	"bytes"
	"io"
	"log"
	"net"
	"sync"

	"github.com/omochice/toy-socket-client/internal/transport"
)

// pollResult is one scripted answer to Poll.
type pollResult struct {
	data []byte
	err  error
}

// mockConn is a mock implementation of transport.Conn for testing.
// Polls return scripted results in order, then ErrWouldBlock.
type mockConn struct {
	mu          sync.Mutex
	written     [][]byte
	writeErr    error
	polls       []pollResult
	pollCount   int
	shutdowns   int
	shutdownErr error
	closes      int
}

var _ transport.Conn = (*mockConn)(nil)

func (m *mockConn) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]byte, len(p))
	copy(copied, p)
	m.written = append(m.written, copied)
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	return len(p), nil
}

func (m *mockConn) Poll(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pollCount++
	if len(m.polls) == 0 {
		return 0, transport.ErrWouldBlock
	}
	next := m.polls[0]
	m.polls = m.polls[1:]
	if next.err != nil {
		return 0, next.err
	}
	return copy(buf, next.data), nil
}

func (m *mockConn) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdowns++
	return m.shutdownErr
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

func (m *mockConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9000}
}

func (m *mockConn) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written
}

func (m *mockConn) PollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pollCount
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "", 0)
}
