package socket

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

func startTestServer(t *testing.T) *Server {
	t.Helper()
	srv := NewServer("127.0.0.1", 0, 0, nil)

	srv.Register("ping", func(msg domain.Message, peer domain.Peer) *domain.Response {
		return &domain.Response{Status: domain.StatusSuccess, Message: "pong", Data: peer.IP}
	})
	srv.Register("boom", func(msg domain.Message, peer domain.Peer) *domain.Response {
		panic("handler exploded")
	})

	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)
	return srv
}

func dialChannel(t *testing.T, addr net.Addr) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewReader(conn)
}

func sendLine(t *testing.T, conn net.Conn, payload string) {
	t.Helper()
	_, err := fmt.Fprintf(conn, "%s\n", payload)
	require.NoError(t, err)
}

func readResponse(t *testing.T, reader *bufio.Reader) domain.Response {
	t.Helper()
	line, err := reader.ReadBytes('\n')
	require.NoError(t, err)
	var resp domain.Response
	require.NoError(t, json.Unmarshal(line, &resp))
	return resp
}

func TestDispatchEchoesRequestID(t *testing.T) {
	srv := startTestServer(t)
	conn, reader := dialChannel(t, srv.ControlAddr())

	sendLine(t, conn, `{"command":"ping","id":"req-1"}`)
	resp := readResponse(t, reader)

	assert.Equal(t, domain.StatusSuccess, resp.Status)
	assert.Equal(t, "pong", resp.Message)
	assert.Equal(t, "req-1", resp.ID)
	assert.Equal(t, "127.0.0.1", resp.Data)
}

func TestSequentialRequestsOnOneConnection(t *testing.T) {
	srv := startTestServer(t)
	conn, reader := dialChannel(t, srv.ControlAddr())

	for i := 0; i < 3; i++ {
		sendLine(t, conn, fmt.Sprintf(`{"command":"ping","id":"req-%d"}`, i))
		resp := readResponse(t, reader)
		assert.Equal(t, fmt.Sprintf("req-%d", i), resp.ID)
	}
}

func TestUnknownCommand(t *testing.T) {
	srv := startTestServer(t)
	conn, reader := dialChannel(t, srv.ControlAddr())

	sendLine(t, conn, `{"command":"bogus"}`)
	resp := readResponse(t, reader)

	assert.Equal(t, domain.StatusError, resp.Status)
	assert.Equal(t, "Unknown command: bogus", resp.Message)
}

func TestMalformedJSON(t *testing.T) {
	srv := startTestServer(t)
	conn, reader := dialChannel(t, srv.ControlAddr())

	sendLine(t, conn, `{"command": nope}`)
	resp := readResponse(t, reader)

	assert.Equal(t, domain.StatusError, resp.Status)
	assert.Equal(t, "Invalid request format", resp.Message)

	// The connection survives a malformed frame.
	sendLine(t, conn, `{"command":"ping","id":"after"}`)
	resp = readResponse(t, reader)
	assert.Equal(t, "after", resp.ID)
}

func TestHandlerPanicDropsConnection(t *testing.T) {
	srv := startTestServer(t)
	conn, reader := dialChannel(t, srv.ControlAddr())

	sendLine(t, conn, `{"command":"boom","id":"req-1"}`)

	// No structured error crosses the wire; the connection just dies.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := reader.ReadBytes('\n')
	assert.Error(t, err)
}

func TestCloseIdle(t *testing.T) {
	srv := startTestServer(t)
	conn, reader := dialChannel(t, srv.ControlAddr())

	// A round trip guarantees the connection is tracked before the sweep.
	sendLine(t, conn, `{"command":"ping","id":"warm"}`)
	readResponse(t, reader)

	srv.CloseIdle(0)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := reader.ReadBytes('\n')
	assert.Error(t, err, "idle sweep closed the connection")
}

func TestBroadcastReachesDataChannel(t *testing.T) {
	srv := startTestServer(t)
	_, reader := dialChannel(t, srv.DataAddr())

	event := domain.Message{Command: "suspect_flagged", Params: json.RawMessage(`{"ip":"10.0.0.1"}`)}

	// The acceptor registers the connection asynchronously; retry until the
	// broadcast lands.
	got := make(chan domain.Message, 1)
	go func() {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}
		var msg domain.Message
		if json.Unmarshal(line, &msg) == nil {
			got <- msg
		}
	}()

	require.Eventually(t, func() bool {
		srv.Broadcast(ChannelData, event)
		select {
		case msg := <-got:
			assert.Equal(t, "suspect_flagged", msg.Command)
			return true
		default:
			return false
		}
	}, 2*time.Second, 100*time.Millisecond)
}

func TestStopClosesListeners(t *testing.T) {
	srv := startTestServer(t)
	controlAddr := srv.ControlAddr().String()
	srv.Stop()

	_, err := net.DialTimeout("tcp", controlAddr, 500*time.Millisecond)
	assert.Error(t, err)
}
