// Package handlers binds the wire commands to the decision engine. Each
// handler owns parameter validation and the response shape; policy lives in
// the engine.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
	"github.com/lcalzada-xor/honeytrap/internal/core/ports"
)

// Registrar is where handlers install themselves, satisfied by
// socket.Server.
type Registrar interface {
	Register(command string, handler ports.MessageHandler)
}

// Set groups the command handlers and their collaborators.
type Set struct {
	gate       ports.Gatekeeper
	store      ports.Storage
	visibility ports.VisibilityController
}

// New wires a handler set. visibility may be nil when stealth is disabled.
func New(gate ports.Gatekeeper, store ports.Storage, visibility ports.VisibilityController) *Set {
	return &Set{gate: gate, store: store, visibility: visibility}
}

// RegisterAll installs every command handler on the registrar.
func (h *Set) RegisterAll(reg Registrar) {
	reg.Register(domain.CmdLogin, h.Login)
	reg.Register(domain.CmdSignup, h.Signup)
	reg.Register(domain.CmdLogout, h.Logout)
	reg.Register(domain.CmdUpdateActivity, h.UpdateActivity)
	reg.Register(domain.CmdGetPorts, h.GetPorts)
	reg.Register(domain.CmdUpdatePort, h.UpdatePort)
	reg.Register(domain.CmdGetAttackers, h.GetAttackers)
	reg.Register(domain.CmdGetPotentialAttackers, h.GetPotentialAttackers)
	reg.Register(domain.CmdBanIP, h.BanIP)
	reg.Register(domain.CmdUnbanIP, h.UnbanIP)
	reg.Register(domain.CmdGetBannedIPs, h.GetBannedIPs)
	reg.Register(domain.CmdGetActiveUsers, h.GetActiveUsers)
}

// parseParams decodes msg.Params into v. Missing or malformed params leave v
// zero-valued; the handlers validate required fields themselves.
func parseParams(msg domain.Message, v any) {
	if len(msg.Params) == 0 {
		return
	}
	if err := json.Unmarshal(msg.Params, v); err != nil {
		slog.Debug("Unparseable params", "command", msg.Command, "error", err)
	}
}

// Login runs the deception decision. The response status carries the outcome
// itself: admin, valid, fake or error. A fake outcome looks like a routing
// decision to the client, never an accusation.
func (h *Set) Login(msg domain.Message, peer domain.Peer) *domain.Response {
	var p domain.LoginParams
	parseParams(msg, &p)

	if p.Username == "" || p.Password == "" {
		return &domain.Response{Status: domain.StatusError, Message: "Username and password required"}
	}

	outcome, reason := h.gate.CheckLogin(p.Username, p.Password, peer.IP, p.Port)
	resp := &domain.Response{Status: string(outcome)}
	if reason != "" {
		resp.Message = reason
	}
	return resp
}

// Signup creates a user account.
func (h *Set) Signup(msg domain.Message, peer domain.Peer) *domain.Response {
	var p domain.LoginParams
	parseParams(msg, &p)

	if p.Username == "" || p.Password == "" {
		return &domain.Response{Status: domain.StatusError, Message: "Username and password required"}
	}
	if len(p.Username) < domain.MinCredentialLength || len(p.Password) < domain.MinCredentialLength {
		return &domain.Response{
			Status:  domain.StatusError,
			Message: fmt.Sprintf("Username and password must be at least %d characters", domain.MinCredentialLength),
		}
	}

	ok, message := h.gate.CreateUser(p.Username, p.Password)
	status := domain.StatusError
	if ok {
		status = domain.StatusSuccess
	}
	return &domain.Response{Status: status, Message: message}
}

// Logout drops the caller's session. Reports success even when no session
// existed; the client is done either way.
func (h *Set) Logout(msg domain.Message, peer domain.Peer) *domain.Response {
	var p domain.UsernameParams
	parseParams(msg, &p)

	if p.Username != "" {
		h.gate.Logout(p.Username)
	}
	return &domain.Response{Status: domain.StatusSuccess, Message: "Logged out successfully"}
}

// UpdateActivity refreshes the caller's session keep-alive.
func (h *Set) UpdateActivity(msg domain.Message, peer domain.Peer) *domain.Response {
	var p domain.UsernameParams
	parseParams(msg, &p)

	if p.Username == "" {
		return &domain.Response{Status: domain.StatusError, Message: "Username required"}
	}
	if h.gate.UpdateActivity(p.Username) {
		return &domain.Response{Status: domain.StatusUpdated}
	}
	return &domain.Response{Status: domain.StatusError, Message: "User not found"}
}

// GetPorts returns the port policy table.
func (h *Set) GetPorts(msg domain.Message, peer domain.Peer) *domain.Response {
	servicePorts, err := h.store.Ports()
	if err != nil {
		servicePorts = []domain.ServicePort{}
	}
	return &domain.Response{Status: domain.StatusSuccess, Data: servicePorts}
}

// UpdatePort mutates one port's policy and reconciles its network
// visibility when the status changed.
func (h *Set) UpdatePort(msg domain.Message, peer domain.Peer) *domain.Response {
	var p domain.PortUpdateParams
	parseParams(msg, &p)

	if p.Port == 0 {
		return &domain.Response{Status: domain.StatusError, Message: "Port required"}
	}

	if !h.gate.TogglePort(p.Port, p.Status, p.Honeypot) {
		return &domain.Response{Status: domain.StatusError, Message: "Port not found"}
	}

	if p.Status != nil && h.visibility != nil {
		h.visibility.SetVisibility(p.Port, *p.Status == domain.PortActive)
		slog.Info("Port status changed", "port", p.Port, "status", *p.Status, "admin_ip", peer.IP)
	}
	if p.Honeypot != nil {
		slog.Info("Honeypot flag changed", "port", p.Port, "honeypot", *p.Honeypot, "admin_ip", peer.IP)
	}
	return &domain.Response{Status: domain.StatusSuccess, Message: "Port updated"}
}

// GetAttackers returns the confirmed-attacker records.
func (h *Set) GetAttackers(msg domain.Message, peer domain.Peer) *domain.Response {
	attackers, err := h.store.Attackers()
	if err != nil {
		attackers = []domain.Attacker{}
	}
	return &domain.Response{Status: domain.StatusSuccess, Data: attackers}
}

// GetPotentialAttackers returns the suspect records.
func (h *Set) GetPotentialAttackers(msg domain.Message, peer domain.Peer) *domain.Response {
	suspects, err := h.store.Suspects()
	if err != nil {
		suspects = []domain.Suspect{}
	}
	return &domain.Response{Status: domain.StatusSuccess, Data: suspects}
}

// BanIP adds an address to the ban list.
func (h *Set) BanIP(msg domain.Message, peer domain.Peer) *domain.Response {
	var p domain.IPParams
	parseParams(msg, &p)

	if p.IP == "" {
		return &domain.Response{Status: domain.StatusError, Message: "IP address required"}
	}
	if !h.gate.BanIP(p.IP) {
		return &domain.Response{Status: domain.StatusError, Message: "Failed to ban IP"}
	}
	slog.Info("IP banned", "ip", p.IP, "admin_ip", peer.IP)
	return &domain.Response{Status: domain.StatusSuccess, Message: fmt.Sprintf("IP %s has been banned", p.IP)}
}

// UnbanIP removes an address from the ban list.
func (h *Set) UnbanIP(msg domain.Message, peer domain.Peer) *domain.Response {
	var p domain.IPParams
	parseParams(msg, &p)

	if p.IP == "" {
		return &domain.Response{Status: domain.StatusError, Message: "IP address required"}
	}
	if !h.gate.UnbanIP(p.IP) {
		return &domain.Response{Status: domain.StatusError, Message: "Failed to unban IP"}
	}
	slog.Info("IP unbanned", "ip", p.IP, "admin_ip", peer.IP)
	return &domain.Response{Status: domain.StatusSuccess, Message: fmt.Sprintf("IP %s has been unbanned", p.IP)}
}

// GetBannedIPs returns the ban list.
func (h *Set) GetBannedIPs(msg domain.Message, peer domain.Peer) *domain.Response {
	banned, err := h.store.BannedIPs()
	if err != nil {
		banned = []string{}
	}
	return &domain.Response{Status: domain.StatusSuccess, Data: banned}
}

// GetActiveUsers renders the live session table.
func (h *Set) GetActiveUsers(msg domain.Message, peer domain.Peer) *domain.Response {
	users, err := h.gate.ActiveUsers()
	if err != nil {
		users = []domain.ActiveUser{}
	}
	return &domain.Response{Status: domain.StatusSuccess, Data: users}
}
