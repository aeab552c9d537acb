package storage

import (
	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
	"gorm.io/gorm"
)

// Users returns the username -> password map.
func (s *SQLiteStore) Users() (map[string]string, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	var rows []domain.User
	if err := s.db.Find(&rows).Error; err != nil {
		return map[string]string{}, err
	}
	users := make(map[string]string, len(rows))
	for _, u := range rows {
		users[u.Username] = u.Password
	}
	return users, nil
}

// SaveUsers replaces the users collection.
func (s *SQLiteStore) SaveUsers(users map[string]string) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	rows := make([]domain.User, 0, len(users))
	for name, pw := range users {
		rows = append(rows, domain.User{Username: name, Password: pw})
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.User{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// Sessions returns the username -> session map.
func (s *SQLiteStore) Sessions() (map[string]domain.Session, error) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	var rows []domain.Session
	if err := s.db.Find(&rows).Error; err != nil {
		return map[string]domain.Session{}, err
	}
	sessions := make(map[string]domain.Session, len(rows))
	for _, sess := range rows {
		sessions[sess.Username] = sess
	}
	return sessions, nil
}

// SaveSessions replaces the sessions collection.
func (s *SQLiteStore) SaveSessions(sessions map[string]domain.Session) error {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	rows := make([]domain.Session, 0, len(sessions))
	for name, sess := range sessions {
		sess.Username = name
		rows = append(rows, sess)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.Session{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// Ports returns the fronted-port policy table, ordered by port number.
func (s *SQLiteStore) Ports() ([]domain.ServicePort, error) {
	s.portsMu.Lock()
	defer s.portsMu.Unlock()

	var rows []domain.ServicePort
	if err := s.db.Order("port").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SavePorts replaces the ports collection.
func (s *SQLiteStore) SavePorts(ports []domain.ServicePort) error {
	s.portsMu.Lock()
	defer s.portsMu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.ServicePort{}).Error; err != nil {
			return err
		}
		if len(ports) == 0 {
			return nil
		}
		return tx.Create(&ports).Error
	})
}

// BannedIPs returns the ban list.
func (s *SQLiteStore) BannedIPs() ([]string, error) {
	s.bansMu.Lock()
	defer s.bansMu.Unlock()

	var rows []BannedIP
	if err := s.db.Order("ip").Find(&rows).Error; err != nil {
		return nil, err
	}
	ips := make([]string, 0, len(rows))
	for _, r := range rows {
		ips = append(ips, r.IP)
	}
	return ips, nil
}

// SaveBannedIPs replaces the ban list.
func (s *SQLiteStore) SaveBannedIPs(ips []string) error {
	s.bansMu.Lock()
	defer s.bansMu.Unlock()

	rows := make([]BannedIP, 0, len(ips))
	for _, ip := range ips {
		rows = append(rows, BannedIP{IP: ip})
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&BannedIP{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// Suspects returns the potential-attacker records.
func (s *SQLiteStore) Suspects() ([]domain.Suspect, error) {
	s.suspectsMu.Lock()
	defer s.suspectsMu.Unlock()

	var rows []domain.Suspect
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveSuspects replaces the potential-attacker records.
func (s *SQLiteStore) SaveSuspects(suspects []domain.Suspect) error {
	s.suspectsMu.Lock()
	defer s.suspectsMu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.Suspect{}).Error; err != nil {
			return err
		}
		if len(suspects) == 0 {
			return nil
		}
		return tx.Create(&suspects).Error
	})
}

// Attackers returns the confirmed-attacker records. The gateway never writes
// this collection.
func (s *SQLiteStore) Attackers() ([]domain.Attacker, error) {
	var rows []domain.Attacker
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
