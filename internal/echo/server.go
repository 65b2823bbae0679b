// Package echo provides a local peer for the client: every byte received
// over raw TCP, and every WebSocket message, is sent straight back.
// Both protocols share one port.
package echo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// DefaultPath is the WebSocket endpoint path.
const DefaultPath = "/ws"

// Server echoes TCP streams and WebSocket messages.
type Server struct {
	address  string
	path     string
	logger   *log.Logger
	listener net.Listener
	upgrader websocket.Upgrader
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	closing  bool
	wg       sync.WaitGroup
}

// New creates a Server for address. A nil logger falls back to the
// standard logger.
func New(address string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		address: address,
		path:    DefaultPath,
		logger:  logger,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start echo server: %w", err)
	}
	s.listener = listener
	s.logger.Printf("Echo server listening on %s (TCP and WebSocket %s)", listener.Addr(), s.path)
	return nil
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Serve accepts connections until ctx is done. Listen is called first if
// it has not been already. Open connections are closed before Serve
// returns.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				s.logger.Printf("Failed to accept connection: %v", err)
				continue
			}

			s.track(conn)
			s.wg.Add(1)
			go s.handleConnection(conn)
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		s.listener.Close()
		s.closeAll()
		return nil
	})

	err := g.Wait()
	s.wg.Wait()
	return err
}

// track registers conn for closing on shutdown. A connection accepted
// after shutdown began is closed right away.
func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		conn.Close()
		return
	}
	s.conns[conn] = struct{}{}
}

func (s *Server) untrack(conn net.Conn) {
	if bc, ok := conn.(*bufferedConn); ok {
		conn = bc.Conn
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	for conn := range s.conns {
		conn.Close()
	}
}

// handleConnection routes the connection by its first bytes.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	proto, reader, err := detectProtocol(conn)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.logger.Printf("Failed to detect protocol: %v", err)
		}
		s.untrack(conn)
		conn.Close()
		return
	}

	bc := &bufferedConn{Conn: conn, reader: reader}
	if proto == protocolHTTP {
		s.serveHTTP(bc)
		return
	}

	defer s.untrack(conn)
	defer conn.Close()
	s.echoStream(bc)
}

// echoStream copies every read straight back to the peer.
func (s *Server) echoStream(conn net.Conn) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if _, werr := conn.Write(buf[:n]); werr != nil {
				s.logger.Printf("Failed to echo to %s: %v", conn.RemoteAddr(), werr)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Printf("Error reading from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}
	}
}

// serveHTTP serves a single HTTP connection; only the WebSocket path is
// routed.
func (s *Server) serveHTTP(conn net.Conn) {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleWebSocket)

	httpServer := &http.Server{
		Handler: mux,
		ConnState: func(c net.Conn, state http.ConnState) {
			if state == http.StateClosed {
				s.untrack(c)
			}
		},
	}
	_ = httpServer.Serve(&singleConnListener{conn: conn})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("Failed to upgrade connection: %v", err)
		return
	}
	defer s.untrack(conn.NetConn())
	defer conn.Close()

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("WebSocket read error from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}
		if err := conn.WriteMessage(typ, data); err != nil {
			s.logger.Printf("Failed to echo to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}
