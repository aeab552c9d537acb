package socket

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
)

// Conn is one tracked client connection on either channel.
type Conn struct {
	netConn net.Conn
	reader  *bufio.Reader
	peer    domain.Peer

	writeMu sync.Mutex

	// Unix nanoseconds of the last successful read.
	lastRead atomic.Int64
}

func newConn(netConn net.Conn, channel string) *Conn {
	ip := netConn.RemoteAddr().String()
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	c := &Conn{
		netConn: netConn,
		reader:  bufio.NewReader(netConn),
		peer:    domain.Peer{IP: ip, Channel: channel},
	}
	c.lastRead.Store(time.Now().UnixNano())
	return c
}

// readLine blocks until one '\n'-terminated frame arrives, returning it
// without the terminator. A successful read refreshes the activity clock.
func (c *Conn) readLine() ([]byte, error) {
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	c.lastRead.Store(time.Now().UnixNano())
	return bytes.TrimSpace(line), nil
}

// write marshals v and sends it as one newline-terminated frame. Writes from
// concurrent broadcasters and the read loop serialize on writeMu so frames
// never interleave.
func (c *Conn) write(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	payload = append(payload, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.netConn.Write(payload)
	return err
}

func (c *Conn) lastActivity() time.Time {
	return time.Unix(0, c.lastRead.Load())
}
