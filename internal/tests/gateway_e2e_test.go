// End-to-end coverage: a fully wired gateway exercised through the Go
// client over real TCP connections.
package tests

import (
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/lcalzada-xor/honeytrap/internal/adapters/socket"
	"github.com/lcalzada-xor/honeytrap/internal/adapters/socket/handlers"
	"github.com/lcalzada-xor/honeytrap/internal/adapters/storage"
	"github.com/lcalzada-xor/honeytrap/internal/client"
	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
	"github.com/lcalzada-xor/honeytrap/internal/core/services/policy"
	"github.com/lcalzada-xor/honeytrap/internal/core/services/stealth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gateway struct {
	store  *storage.SQLiteStore
	engine *policy.Engine
	server *socket.Server
	client *client.Client
}

// pushNotifier mirrors the production wiring: events go out on the data
// channel framed like requests.
type pushNotifier struct {
	server *socket.Server
}

func (n pushNotifier) Notify(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	n.server.Broadcast(socket.ChannelData, domain.Message{Command: event, Params: raw})
}

func startGateway(t *testing.T) *gateway {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "honeytrap.db"))
	require.NoError(t, err)
	require.NoError(t, store.Seed())
	t.Cleanup(func() { store.Close() })

	engine := policy.NewEngine(store)
	supervisor := stealth.NewSupervisor()
	t.Cleanup(supervisor.Stop)

	server := socket.NewServer("127.0.0.1", 0, 0, nil)
	handlers.New(engine, store, supervisor).RegisterAll(server)
	engine.SetNotifier(pushNotifier{server})
	require.NoError(t, server.Start())
	t.Cleanup(server.Stop)

	controlPort := server.ControlAddr().(*net.TCPAddr).Port
	dataPort := server.DataAddr().(*net.TCPAddr).Port

	c, err := client.Dial("127.0.0.1", controlPort, dataPort, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return &gateway{store: store, engine: engine, server: server, client: c}
}

func TestSignupAndLogin(t *testing.T) {
	gw := startGateway(t)

	res, err := gw.client.Signup("newbie", "secret")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, res.Status)

	res, err = gw.client.Login("newbie", "secret", 8001)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OutcomeValid), res.Status)

	users, err := gw.client.GetActiveUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "newbie", users[0].Username)
	assert.Equal(t, "127.0.0.1", users[0].IP)
	assert.Equal(t, 8001, users[0].Port)
}

func TestFailedLoginsArmTheDecoy(t *testing.T) {
	gw := startGateway(t)

	res, err := gw.client.Login("user", "wrong", 8002)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OutcomeError), res.Status)
	assert.Equal(t, "Incorrect username/password", res.Message)

	res, err = gw.client.Login("user", "wrong", 8002)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OutcomeFake), res.Status)
	assert.Empty(t, res.Message)

	suspects, err := gw.client.GetPotentialAttackers()
	require.NoError(t, err)
	require.Len(t, suspects, 1)
	assert.Equal(t, "user", suspects[0].Username)
	assert.Equal(t, "127.0.0.1", suspects[0].IP)
	assert.Equal(t, 2, suspects[0].Attempts)
	assert.Equal(t, domain.ReasonFailedLogins, suspects[0].Reason)

	servicePorts, err := gw.client.GetPorts()
	require.NoError(t, err)
	for _, p := range servicePorts {
		if p.Number == 8002 {
			assert.True(t, p.Honeypot)
			assert.NotEqual(t, domain.NeverTriggered, p.LastTriggered)
		}
	}

	// The armed decoy now swallows even correct credentials.
	res, err = gw.client.Login("user", "password", 8002)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OutcomeFake), res.Status)
}

func TestBanLifecycle(t *testing.T) {
	gw := startGateway(t)

	res, err := gw.client.Login("admin", "admin123", 0)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OutcomeAdmin), res.Status)

	res, err = gw.client.BanIP("127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "IP 127.0.0.1 has been banned", res.Message)

	res, err = gw.client.Login("user", "password", 8001)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OutcomeFake), res.Status)
	assert.Equal(t, "IP address banned", res.Message)

	// Admin still gets through from the banned address.
	res, err = gw.client.Login("admin", "admin123", 0)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OutcomeAdmin), res.Status)

	banned, err := gw.client.GetBannedIPs()
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1"}, banned)

	res, err = gw.client.UnbanIP("127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "IP 127.0.0.1 has been unbanned", res.Message)

	res, err = gw.client.Login("user", "password", 8001)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OutcomeValid), res.Status)
}

func TestPortAdministration(t *testing.T) {
	gw := startGateway(t)

	servicePorts, err := gw.client.GetPorts()
	require.NoError(t, err)
	assert.Len(t, servicePorts, 5)

	inactive := domain.PortInactive
	res, err := gw.client.UpdatePort(8001, &inactive, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, res.Status)

	servicePorts, err = gw.client.GetPorts()
	require.NoError(t, err)
	assert.Equal(t, domain.PortInactive, servicePorts[0].Status)

	res, err = gw.client.UpdatePort(9999, &inactive, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, res.Status)
	assert.Equal(t, "Port not found", res.Message)
}

func TestUnknownCommand(t *testing.T) {
	gw := startGateway(t)

	res, err := gw.client.Send("bogus", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, res.Status)
	assert.Equal(t, "Unknown command: bogus", res.Message)
}

func TestLogoutEndsSession(t *testing.T) {
	gw := startGateway(t)

	_, err := gw.client.Login("user", "password", 8001)
	require.NoError(t, err)

	res, err := gw.client.Logout("user")
	require.NoError(t, err)
	assert.Equal(t, "Logged out successfully", res.Message)

	users, err := gw.client.GetActiveUsers()
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSuspectEventPushedOnDataChannel(t *testing.T) {
	gw := startGateway(t)

	flagged := make(chan domain.Suspect, 1)
	gw.client.OnEvent("suspect_flagged", func(payload json.RawMessage) {
		var s domain.Suspect
		if json.Unmarshal(payload, &s) == nil {
			flagged <- s
		}
	})

	_, err := gw.client.Login("user", "wrong", 8003)
	require.NoError(t, err)
	_, err = gw.client.Login("user", "wrong", 8003)
	require.NoError(t, err)

	select {
	case s := <-flagged:
		assert.Equal(t, "user", s.Username)
		assert.Equal(t, domain.ReasonFailedLogins, s.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("no suspect_flagged event arrived on the data channel")
	}
}

func TestUpdateActivityKeepsSessionAlive(t *testing.T) {
	gw := startGateway(t)

	_, err := gw.client.Login("user", "password", 8001)
	require.NoError(t, err)

	res, err := gw.client.UpdateActivity("user")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUpdated, res.Status)

	// A refreshed session survives the inactivity sweep.
	gw.engine.InactivitySweep()
	users, err := gw.client.GetActiveUsers()
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
