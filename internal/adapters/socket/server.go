package socket

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
	"github.com/lcalzada-xor/honeytrap/internal/core/ports"
	"github.com/lcalzada-xor/honeytrap/internal/telemetry"
)

// Channel names. All request/response traffic runs over the control channel;
// the data channel carries asynchronous server push.
const (
	ChannelControl = "control"
	ChannelData    = "data"
)

// IdleTimeout is how long a connection may sit without a successful read
// before the idle sweep closes it.
const IdleTimeout = 5 * time.Minute

const (
	acceptPoll     = 1 * time.Second
	maxBindRetries = 5
)

// Server is the dual-channel TCP message server.
//
// Framing is newline-delimited JSON: every request is a single JSON object
// terminated by '\n', and every response is written back the same way. One
// request is dispatched, and its response written, before the next line on
// that connection is read.
type Server struct {
	host        string
	controlPort int
	dataPort    int
	tlsConf     *tls.Config

	handlers map[string]ports.MessageHandler

	connsMu sync.Mutex
	conns   map[string]map[*Conn]struct{}

	controlLn net.Listener
	dataLn    net.Listener

	active atomic.Bool
}

// NewServer creates a message server bound to host on the two channel ports.
// tlsConf is optional; when set, accepted connections are wrapped in TLS.
func NewServer(host string, controlPort, dataPort int, tlsConf *tls.Config) *Server {
	return &Server{
		host:        host,
		controlPort: controlPort,
		dataPort:    dataPort,
		tlsConf:     tlsConf,
		handlers:    make(map[string]ports.MessageHandler),
		conns: map[string]map[*Conn]struct{}{
			ChannelControl: {},
			ChannelData:    {},
		},
	}
}

// Register binds a handler to a command name. Not safe to call after Start.
func (s *Server) Register(command string, handler ports.MessageHandler) {
	s.handlers[command] = handler
}

// Start binds both listeners, retrying with exponential back-off, and spawns
// the two acceptor workers. It returns once the server is accepting.
func (s *Server) Start() error {
	var err error
	for attempt := 1; attempt <= maxBindRetries; attempt++ {
		if err = s.bind(); err == nil {
			break
		}
		if attempt == maxBindRetries {
			return fmt.Errorf("failed to start server after %d retries: %w", maxBindRetries, err)
		}
		backoff := time.Duration(1<<attempt) * time.Second
		slog.Warn("Socket bind failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		time.Sleep(backoff)
	}

	s.active.Store(true)
	go s.acceptLoop(s.controlLn, ChannelControl)
	go s.acceptLoop(s.dataLn, ChannelData)

	slog.Info("Message server listening",
		"control", s.controlLn.Addr().String(),
		"data", s.dataLn.Addr().String(),
		"tls", s.tlsConf != nil)
	return nil
}

func (s *Server) bind() error {
	controlLn, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.host, s.controlPort))
	if err != nil {
		return err
	}
	dataLn, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.host, s.dataPort))
	if err != nil {
		controlLn.Close()
		return err
	}
	s.controlLn = controlLn
	s.dataLn = dataLn
	return nil
}

// Active reports whether the server is accepting connections.
func (s *Server) Active() bool {
	return s.active.Load()
}

// ControlAddr returns the bound control listener address.
func (s *Server) ControlAddr() net.Addr { return s.controlLn.Addr() }

// DataAddr returns the bound data listener address.
func (s *Server) DataAddr() net.Addr { return s.dataLn.Addr() }

func (s *Server) acceptLoop(ln net.Listener, channel string) {
	tcpLn := ln.(*net.TCPListener)

	for s.active.Load() {
		tcpLn.SetDeadline(time.Now().Add(acceptPoll))
		netConn, err := tcpLn.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if s.active.Load() {
				slog.Warn("Accept error", "channel", channel, "error", err)
			}
			continue
		}

		if s.tlsConf != nil {
			netConn = tls.Server(netConn, s.tlsConf)
		}

		conn := newConn(netConn, channel)
		s.track(conn)

		slog.Debug("New connection", "channel", channel, "peer", conn.peer.IP)
		go s.serve(conn)
	}
}

func (s *Server) track(c *Conn) {
	s.connsMu.Lock()
	s.conns[c.peer.Channel][c] = struct{}{}
	s.connsMu.Unlock()
	telemetry.OpenConnections.WithLabelValues(c.peer.Channel).Inc()
}

func (s *Server) drop(c *Conn) {
	s.connsMu.Lock()
	_, tracked := s.conns[c.peer.Channel][c]
	delete(s.conns[c.peer.Channel], c)
	s.connsMu.Unlock()

	if tracked {
		telemetry.OpenConnections.WithLabelValues(c.peer.Channel).Dec()
	}
	c.netConn.Close()
}

// serve reads framed requests off one connection until it dies. A handler
// panic drops the connection without writing a structured error, keeping
// internal failures off the wire.
func (s *Server) serve(c *Conn) {
	defer s.drop(c)

	for s.active.Load() {
		line, err := c.readLine()
		if err != nil {
			return
		}
		if len(line) == 0 {
			continue
		}

		var msg domain.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			if werr := c.write(&domain.Response{
				Status:  domain.StatusError,
				Message: "Invalid request format",
			}); werr != nil {
				return
			}
			continue
		}

		resp, ok := s.dispatch(msg, c.peer)
		if !ok {
			return
		}
		if resp == nil {
			continue
		}
		resp.ID = msg.ID
		if err := c.write(resp); err != nil {
			return
		}
	}
}

// dispatch routes one parsed message. ok is false when the handler paniced
// and the connection must be dropped.
func (s *Server) dispatch(msg domain.Message, peer domain.Peer) (resp *domain.Response, ok bool) {
	handler, found := s.handlers[msg.Command]
	if !found {
		return &domain.Response{
			Status:  domain.StatusError,
			Message: fmt.Sprintf("Unknown command: %s", msg.Command),
		}, true
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Handler panic", "command", msg.Command, "peer", peer.IP, "panic", r)
			resp, ok = nil, false
		}
	}()

	telemetry.CommandsDispatched.WithLabelValues(msg.Command).Inc()
	return handler(msg, peer), true
}

// Broadcast pushes one message to every connection on a channel. Dead
// connections are dropped along the way.
func (s *Server) Broadcast(channel string, v any) {
	s.connsMu.Lock()
	targets := make([]*Conn, 0, len(s.conns[channel]))
	for c := range s.conns[channel] {
		targets = append(targets, c)
	}
	s.connsMu.Unlock()

	for _, c := range targets {
		if err := c.write(v); err != nil {
			s.drop(c)
		}
	}
}

// CloseIdle closes every connection whose last successful read is older
// than timeout.
func (s *Server) CloseIdle(timeout time.Duration) {
	now := time.Now()

	s.connsMu.Lock()
	var idle []*Conn
	for _, channel := range s.conns {
		for c := range channel {
			if now.Sub(c.lastActivity()) > timeout {
				idle = append(idle, c)
			}
		}
	}
	s.connsMu.Unlock()

	for _, c := range idle {
		slog.Info("Closing idle connection", "channel", c.peer.Channel, "peer", c.peer.IP)
		s.drop(c)
	}
}

// IdleSweep runs CloseIdle with the standard timeout.
func (s *Server) IdleSweep() {
	s.CloseIdle(IdleTimeout)
}

// Stop shuts the server down: no new connections are accepted, both
// listeners close, and every open connection is dropped.
func (s *Server) Stop() {
	if !s.active.CompareAndSwap(true, false) {
		return
	}

	if s.controlLn != nil {
		s.controlLn.Close()
	}
	if s.dataLn != nil {
		s.dataLn.Close()
	}

	s.connsMu.Lock()
	var all []*Conn
	for _, channel := range s.conns {
		for c := range channel {
			all = append(all, c)
		}
	}
	s.connsMu.Unlock()

	for _, c := range all {
		s.drop(c)
	}

	slog.Info("Message server stopped")
}
