package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "honeytrap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSeed(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Seed())

	servicePorts, err := store.Ports()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPorts(), servicePorts)

	users, err := store.Users()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"user": "password"}, users)
}

func TestSeedDoesNotOverwrite(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Seed())

	require.NoError(t, store.SaveUsers(map[string]string{"custom": "pw"}))
	require.NoError(t, store.SavePorts([]domain.ServicePort{
		{Number: 9000, Status: domain.PortActive, LastTriggered: domain.NeverTriggered},
	}))

	require.NoError(t, store.Seed())

	users, err := store.Users()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"custom": "pw"}, users)

	servicePorts, err := store.Ports()
	require.NoError(t, err)
	require.Len(t, servicePorts, 1)
	assert.Equal(t, 9000, servicePorts[0].Number)
}

func TestSaveReplacesWholeCollection(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveBannedIPs([]string{"10.0.0.1", "10.0.0.2"}))
	require.NoError(t, store.SaveBannedIPs([]string{"10.0.0.3"}))

	banned, err := store.BannedIPs()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.3"}, banned)

	// An empty save clears the table.
	require.NoError(t, store.SaveBannedIPs(nil))
	banned, err = store.BannedIPs()
	require.NoError(t, err)
	assert.Empty(t, banned)
}

func TestSessionsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().Truncate(time.Second)
	in := map[string]domain.Session{
		"user": {
			Username:         "user",
			LoginTime:        now,
			LastActivityTime: now,
			IP:               "10.0.0.1",
			Port:             8001,
		},
	}
	require.NoError(t, store.SaveSessions(in))

	out, err := store.Sessions()
	require.NoError(t, err)
	require.Contains(t, out, "user")
	assert.Equal(t, "10.0.0.1", out["user"].IP)
	assert.Equal(t, 8001, out["user"].Port)
	assert.True(t, out["user"].LoginTime.Equal(now))
}

func TestSuspectsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	suspects := []domain.Suspect{
		{
			Username:      "user",
			IP:            "10.0.0.1",
			AttemptedPort: 8001,
			Attempts:      2,
			Reason:        domain.ReasonFailedLogins,
			Timestamp:     "2025-03-01 10:00:00",
		},
	}
	require.NoError(t, store.SaveSuspects(suspects))

	out, err := store.Suspects()
	require.NoError(t, err)
	assert.Equal(t, suspects, out)
}

func TestAttackersStartEmpty(t *testing.T) {
	store := newTestStore(t)

	attackers, err := store.Attackers()
	require.NoError(t, err)
	assert.Empty(t, attackers)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "honeytrap.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Seed())
	require.NoError(t, store.SaveBannedIPs([]string{"10.0.0.9"}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	banned, err := reopened.BannedIPs()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.9"}, banned)

	users, err := reopened.Users()
	require.NoError(t, err)
	assert.Equal(t, "password", users["user"])
}
