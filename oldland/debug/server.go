package debug

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
)

// Server exposes the debug window over a socket. It serves one
// connection at a time and forwards decoded requests to the execution
// driver, which services them at instruction boundaries; responses flow
// back the same way. Commands never pipeline.
type Server struct {
	ln     net.Listener
	logger *slog.Logger

	reqCh  chan Request
	respCh chan Response

	closeOnce sync.Once
	done      chan struct{}
}

// NewServer listens on the given TCP address (e.g. "127.0.0.1:3333").
func NewServer(addr string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("debug server listen: %w", err)
	}
	return &Server{
		ln:     ln,
		logger: logger,
		reqCh:  make(chan Request),
		respCh: make(chan Response),
		done:   make(chan struct{}),
	}, nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Requests is the channel the driver drains at step boundaries.
func (s *Server) Requests() <-chan Request {
	return s.reqCh
}

// Responses is where the driver delivers the reply to each request.
func (s *Server) Responses() chan<- Response {
	return s.respCh
}

// Serve accepts debugger connections until the listener is closed. The
// request channel is closed on return so a blocked driver wakes up.
func (s *Server) Serve() error {
	defer close(s.reqCh)
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("debug server accept: %w", err)
		}
		s.logger.Info("debugger connected", "remote", conn.RemoteAddr().String())
		if err := s.serveConn(conn); err != nil {
			s.logger.Warn("debugger connection ended", "error", err)
		} else {
			s.logger.Info("debugger disconnected")
		}
	}
}

func (s *Server) serveConn(conn net.Conn) error {
	defer conn.Close()
	for {
		req, err := ReadRequest(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		select {
		case s.reqCh <- req:
		case <-s.done:
			return nil
		}
		var resp Response
		select {
		case resp = <-s.respCh:
		case <-s.done:
			return nil
		}
		if err := WriteResponse(conn, resp); err != nil {
			return err
		}
	}
}

// Close shuts the listener down and unblocks any connection waiting on
// the driver; an in-flight Serve returns nil.
func (s *Server) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.ln.Close()
}
