// Package client is the Go client for the gateway's message protocol. It
// speaks newline-delimited JSON over both channels, correlates responses by
// request id, and surfaces data-channel push events through callbacks.
package client

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
)

// DefaultTimeout bounds how long a request waits for its response.
const DefaultTimeout = 5 * time.Second

// ErrClosed is returned for requests on a closed client.
var ErrClosed = errors.New("client closed")

// ErrTimeout is returned when no response arrives within the deadline.
var ErrTimeout = errors.New("request timed out")

// Result is one decoded response. Data is left raw so callers decode into
// the shape they expect.
type Result struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	ID      string          `json:"id,omitempty"`
}

// EventHandler receives one data-channel push event's payload.
type EventHandler func(payload json.RawMessage)

// Client holds one control and one data connection to a gateway.
type Client struct {
	control net.Conn
	data    net.Conn

	writeMu sync.Mutex
	Timeout time.Duration

	pendingMu sync.Mutex
	pending   map[string]chan *Result

	eventsMu sync.Mutex
	events   map[string]EventHandler

	closed atomic.Bool
}

// Dial connects both channels. tlsConf may be nil for plaintext; a config
// with InsecureSkipVerify set matches a gateway running on a self-signed
// certificate.
func Dial(host string, controlPort, dataPort int, tlsConf *tls.Config) (*Client, error) {
	control, err := dial(host, controlPort, tlsConf)
	if err != nil {
		return nil, fmt.Errorf("control channel: %w", err)
	}
	data, err := dial(host, dataPort, tlsConf)
	if err != nil {
		control.Close()
		return nil, fmt.Errorf("data channel: %w", err)
	}

	c := &Client{
		control: control,
		data:    data,
		Timeout: DefaultTimeout,
		pending: make(map[string]chan *Result),
		events:  make(map[string]EventHandler),
	}
	go c.readLoop(control, true)
	go c.readLoop(data, false)
	return c, nil
}

func dial(host string, port int, tlsConf *tls.Config) (net.Conn, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	if tlsConf != nil {
		return tls.Dial("tcp", addr, tlsConf)
	}
	return net.Dial("tcp", addr)
}

// Close tears down both connections. Outstanding requests fail with
// ErrClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.control.Close()
	c.data.Close()

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
	return nil
}

// OnEvent registers a handler for one push event name on the data channel.
func (c *Client) OnEvent(event string, fn EventHandler) {
	c.eventsMu.Lock()
	c.events[event] = fn
	c.eventsMu.Unlock()
}

// Send issues one command and waits for its correlated response.
func (c *Client) Send(command string, params any) (*Result, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	var raw json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}

	msg := domain.Message{
		Command:   command,
		Params:    raw,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
		ID:        uuid.NewString(),
	}

	ch := make(chan *Result, 1)
	c.pendingMu.Lock()
	c.pending[msg.ID] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, msg.ID)
		c.pendingMu.Unlock()
	}()

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	payload = append(payload, '\n')

	c.writeMu.Lock()
	_, err = c.control.Write(payload)
	c.writeMu.Unlock()
	if err != nil {
		return nil, err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	select {
	case res, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		return res, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

// readLoop consumes frames off one channel. Control frames resolve pending
// requests; data frames carry push events shaped like requests, with the
// event name in the command field.
func (c *Client) readLoop(conn net.Conn, isControl bool) {
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if !c.closed.Load() {
				slog.Debug("Client read loop ended", "error", err)
			}
			return
		}

		if isControl {
			var res Result
			if err := json.Unmarshal(line, &res); err != nil {
				continue
			}
			// Claim the waiter under the lock so Close cannot close the
			// channel out from under the send.
			c.pendingMu.Lock()
			ch, ok := c.pending[res.ID]
			if ok {
				delete(c.pending, res.ID)
			}
			c.pendingMu.Unlock()
			if ok {
				ch <- &res
			}
			continue
		}

		var event domain.Message
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		c.eventsMu.Lock()
		fn := c.events[event.Command]
		c.eventsMu.Unlock()
		if fn != nil {
			fn(event.Params)
		}
	}
}

// KeepAlive sends update_activity for username every interval until stop is
// closed or the client dies.
func (c *Client) KeepAlive(username string, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := c.UpdateActivity(username); err != nil {
				slog.Debug("Keep-alive failed", "username", username, "error", err)
				if c.closed.Load() {
					return
				}
			}
		}
	}
}
