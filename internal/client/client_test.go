package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway answers control-channel frames with a canned transform and
// stays silent on the data channel.
type fakeGateway struct {
	control net.Listener
	data    net.Listener
}

func newFakeGateway(t *testing.T, respond func(msg domain.Message) *domain.Response) *fakeGateway {
	t.Helper()
	control, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	data, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() {
		control.Close()
		data.Close()
	})

	go func() {
		conn, err := control.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		for {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				return
			}
			var msg domain.Message
			if json.Unmarshal(line, &msg) != nil {
				continue
			}
			resp := respond(msg)
			if resp == nil {
				continue
			}
			resp.ID = msg.ID
			payload, _ := json.Marshal(resp)
			conn.Write(append(payload, '\n'))
		}
	}()
	go func() {
		conn, err := data.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		bufio.NewReader(conn).ReadBytes('\n')
	}()

	return &fakeGateway{control: control, data: data}
}

func (g *fakeGateway) ports() (int, int) {
	return g.control.Addr().(*net.TCPAddr).Port, g.data.Addr().(*net.TCPAddr).Port
}

func TestSendCorrelatesByID(t *testing.T) {
	gw := newFakeGateway(t, func(msg domain.Message) *domain.Response {
		return &domain.Response{Status: domain.StatusSuccess, Message: msg.Command}
	})
	controlPort, dataPort := gw.ports()

	c, err := Dial("127.0.0.1", controlPort, dataPort, nil)
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 3; i++ {
		res, err := c.Send(fmt.Sprintf("cmd-%d", i), nil)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("cmd-%d", i), res.Message)
	}
}

func TestSendTimesOutOnSilentServer(t *testing.T) {
	gw := newFakeGateway(t, func(msg domain.Message) *domain.Response {
		return nil // never answer
	})
	controlPort, dataPort := gw.ports()

	c, err := Dial("127.0.0.1", controlPort, dataPort, nil)
	require.NoError(t, err)
	defer c.Close()

	c.Timeout = 100 * time.Millisecond
	_, err = c.Send("ping", nil)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSendAfterCloseFails(t *testing.T) {
	gw := newFakeGateway(t, func(msg domain.Message) *domain.Response {
		return &domain.Response{Status: domain.StatusSuccess}
	})
	controlPort, dataPort := gw.ports()

	c, err := Dial("127.0.0.1", controlPort, dataPort, nil)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = c.Send("ping", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRequestsCarryUniqueIDs(t *testing.T) {
	seen := make(chan string, 2)
	gw := newFakeGateway(t, func(msg domain.Message) *domain.Response {
		seen <- msg.ID
		return &domain.Response{Status: domain.StatusSuccess}
	})
	controlPort, dataPort := gw.ports()

	c, err := Dial("127.0.0.1", controlPort, dataPort, nil)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Send("one", nil)
	require.NoError(t, err)
	_, err = c.Send("two", nil)
	require.NoError(t, err)

	first, second := <-seen, <-seen
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
