package client

import (
	"encoding/json"

	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
)

// Login attempts a login against a service port. The result status is one of
// admin, valid, fake or error.
func (c *Client) Login(username, password string, port int) (*Result, error) {
	return c.Send(domain.CmdLogin, domain.LoginParams{Username: username, Password: password, Port: port})
}

// Signup registers a new account.
func (c *Client) Signup(username, password string) (*Result, error) {
	return c.Send(domain.CmdSignup, domain.LoginParams{Username: username, Password: password})
}

// Logout ends the session for username.
func (c *Client) Logout(username string) (*Result, error) {
	return c.Send(domain.CmdLogout, domain.UsernameParams{Username: username})
}

// UpdateActivity refreshes the session keep-alive for username.
func (c *Client) UpdateActivity(username string) (*Result, error) {
	return c.Send(domain.CmdUpdateActivity, domain.UsernameParams{Username: username})
}

// GetPorts fetches the port policy table.
func (c *Client) GetPorts() ([]domain.ServicePort, error) {
	res, err := c.Send(domain.CmdGetPorts, nil)
	if err != nil {
		return nil, err
	}
	var out []domain.ServicePort
	if len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdatePort changes a port's status and/or decoy flag.
func (c *Client) UpdatePort(port int, status *string, honeypot *bool) (*Result, error) {
	return c.Send(domain.CmdUpdatePort, domain.PortUpdateParams{Port: port, Status: status, Honeypot: honeypot})
}

// GetAttackers fetches the confirmed-attacker records.
func (c *Client) GetAttackers() ([]domain.Attacker, error) {
	res, err := c.Send(domain.CmdGetAttackers, nil)
	if err != nil {
		return nil, err
	}
	var out []domain.Attacker
	if len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetPotentialAttackers fetches the suspect records.
func (c *Client) GetPotentialAttackers() ([]domain.Suspect, error) {
	res, err := c.Send(domain.CmdGetPotentialAttackers, nil)
	if err != nil {
		return nil, err
	}
	var out []domain.Suspect
	if len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// BanIP adds an address to the ban list.
func (c *Client) BanIP(ip string) (*Result, error) {
	return c.Send(domain.CmdBanIP, domain.IPParams{IP: ip})
}

// UnbanIP removes an address from the ban list.
func (c *Client) UnbanIP(ip string) (*Result, error) {
	return c.Send(domain.CmdUnbanIP, domain.IPParams{IP: ip})
}

// GetBannedIPs fetches the ban list.
func (c *Client) GetBannedIPs() ([]string, error) {
	res, err := c.Send(domain.CmdGetBannedIPs, nil)
	if err != nil {
		return nil, err
	}
	var out []string
	if len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetActiveUsers fetches the rendered session table.
func (c *Client) GetActiveUsers() ([]domain.ActiveUser, error) {
	res, err := c.Send(domain.CmdGetActiveUsers, nil)
	if err != nil {
		return nil, err
	}
	var out []domain.ActiveUser
	if len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}
