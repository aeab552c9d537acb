package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lcalzada-xor/honeytrap/internal/adapters/reporting"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetPorts(w http.ResponseWriter, r *http.Request) {
	servicePorts, err := s.Store.Ports()
	if err != nil {
		http.Error(w, "Failed to load ports", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, servicePorts)
}

func (s *Server) handleGetSessions(w http.ResponseWriter, r *http.Request) {
	users, err := s.Gate.ActiveUsers()
	if err != nil {
		http.Error(w, "Failed to load sessions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetSuspects(w http.ResponseWriter, r *http.Request) {
	suspects, err := s.Store.Suspects()
	if err != nil {
		http.Error(w, "Failed to load suspects", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, suspects)
}

func (s *Server) handleGetAttackers(w http.ResponseWriter, r *http.Request) {
	attackers, err := s.Store.Attackers()
	if err != nil {
		http.Error(w, "Failed to load attackers", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, attackers)
}

func (s *Server) handleGetBans(w http.ResponseWriter, r *http.Request) {
	banned, err := s.Store.BannedIPs()
	if err != nil {
		http.Error(w, "Failed to load ban list", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, banned)
}

// handleReport renders the full gateway state as a downloadable PDF.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report := &reporting.ThreatReport{GeneratedAt: time.Now()}

	report.Ports, _ = s.Store.Ports()
	report.Suspects, _ = s.Store.Suspects()
	report.Attackers, _ = s.Store.Attackers()
	report.BannedIPs, _ = s.Store.BannedIPs()
	report.ActiveUsers, _ = s.Gate.ActiveUsers()

	pdf, err := s.Exporter.Export(report)
	if err != nil {
		http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("honeytrap-report-%s.pdf", report.GeneratedAt.Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(pdf)
}
