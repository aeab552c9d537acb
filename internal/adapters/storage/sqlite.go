package storage

import (
	"sync"

	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
	"github.com/lcalzada-xor/honeytrap/internal/core/ports"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// SQLiteStore implements ports.Storage using GORM and SQLite.
//
// Each of the six collections maps to one table and is only ever read or
// written as a whole. A save runs in a transaction that replaces the previous
// snapshot, so readers observe either the pre- or post-image of any single
// write. Collections serialize on their own mutex; there is no
// cross-collection atomicity.
type SQLiteStore struct {
	db *gorm.DB

	usersMu    sync.Mutex
	sessionsMu sync.Mutex
	portsMu    sync.Mutex
	bansMu     sync.Mutex
	suspectsMu sync.Mutex
}

// BannedIP is the GORM model for one banned source address.
type BannedIP struct {
	IP string `gorm:"column:ip;primaryKey"`
}

// NewSQLiteStore initializes the database and migrates the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	// Auto Migrate
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Session{},
		&domain.ServicePort{},
		&domain.Suspect{},
		&domain.Attacker{},
		&BannedIP{},
	); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Seed writes the first-startup defaults: five ports and one test user,
// each only when its collection is empty.
func (s *SQLiteStore) Seed() error {
	ports, err := s.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		if err := s.SavePorts(domain.DefaultPorts()); err != nil {
			return err
		}
	}

	users, err := s.Users()
	if err != nil {
		return err
	}
	if len(users) == 0 {
		if err := s.SaveUsers(map[string]string{"user": "password"}); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure interface compliance
var _ ports.Storage = (*SQLiteStore)(nil)
