package reporting

import (
	"testing"
	"time"

	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportEmptyReport(t *testing.T) {
	exporter := NewPDFExporter()

	pdf, err := exporter.Export(&ThreatReport{GeneratedAt: time.Now()})
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestExportPopulatedReport(t *testing.T) {
	exporter := NewPDFExporter()

	report := &ThreatReport{
		GeneratedAt: time.Now(),
		Ports:       domain.DefaultPorts(),
		Suspects: []domain.Suspect{
			{Username: "user", IP: "10.0.0.1", AttemptedPort: 8001, Attempts: 2,
				Reason: domain.ReasonFailedLogins, Timestamp: "2025-03-01 10:00:00"},
		},
		Attackers: []domain.Attacker{
			{Username: "mallory", IP: "10.0.0.2", Reason: "Confirmed by analyst", Timestamp: "2025-03-01 11:00:00"},
		},
		BannedIPs: []string{"10.0.0.2"},
		ActiveUsers: []domain.ActiveUser{
			{Username: "alice", IP: "10.0.0.3", Port: 8001},
		},
	}

	pdf, err := exporter.Export(report)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
	assert.Greater(t, len(pdf), 1000)
}
