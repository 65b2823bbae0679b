// Package transport provides the client's connection to the remote endpoint.
//
// A Conn is owned by a single goroutine. Reads are polled: Poll returns
// immediately with ErrWouldBlock when nothing has arrived yet.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// ErrWouldBlock is returned by Poll when no data is currently available.
var ErrWouldBlock = errors.New("transport: no data available")

// Conn is a polled, bidirectional byte stream.
type Conn interface {
	// Write sends p to the remote endpoint.
	Write(p []byte) (int, error)

	// Poll reads whatever is available into buf without waiting.
	// Returns ErrWouldBlock when nothing is available and io.EOF once the
	// stream has ended.
	Poll(buf []byte) (int, error)

	// Shutdown closes both directions of the stream. The handle itself
	// must still be released with Close.
	Shutdown() error

	// Close releases the connection.
	Close() error

	// RemoteAddr returns the remote address
	RemoteAddr() net.Addr
}

// Kind selects the transport used to reach the endpoint.
type Kind string

const (
	KindTCP       Kind = "tcp"
	KindWebSocket Kind = "ws"
)

// ParseKind validates a transport name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindTCP, KindWebSocket:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown transport %q (want %q or %q)", s, KindTCP, KindWebSocket)
	}
}

// Options configures Dial.
type Options struct {
	Kind    Kind
	Path    string // request path for KindWebSocket
	Timeout time.Duration
}

// Dial connects to address ("host:port") using the selected transport.
func Dial(ctx context.Context, address string, opts Options) (Conn, error) {
	switch opts.Kind {
	case KindTCP, "":
		return DialTCP(ctx, address, opts.Timeout)
	case KindWebSocket:
		u := url.URL{Scheme: "ws", Host: address, Path: opts.Path}
		return DialWebSocket(ctx, u.String(), opts.Timeout)
	default:
		return nil, fmt.Errorf("unknown transport %q", opts.Kind)
	}
}
