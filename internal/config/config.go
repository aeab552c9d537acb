package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Host        string
	ControlPort int
	DataPort    int
	OpsAddr     string
	DBPath      string
	UseTLS      bool
	CertDir     string
	Debug       bool
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Host = getEnv("HONEYTRAP_HOST", "0.0.0.0")
	cfg.ControlPort = getEnvInt("HONEYTRAP_CONTROL", 5000)
	cfg.DataPort = getEnvInt("HONEYTRAP_DATA", 5001)
	cfg.OpsAddr = getEnv("HONEYTRAP_ADDR", ":8080")
	cfg.DBPath = getEnv("HONEYTRAP_DB", getDefaultDBPath())
	cfg.UseTLS = getEnvBool("HONEYTRAP_TLS", false)
	cfg.CertDir = getEnv("HONEYTRAP_CERTS", "certs")
	cfg.Debug = getEnvBool("HONEYTRAP_DEBUG", false)

	// Command Line Flags (Override Env)
	flag.StringVar(&cfg.Host, "host", cfg.Host, "Address the channel listeners bind to")
	flag.IntVar(&cfg.ControlPort, "control", cfg.ControlPort, "Control channel port")
	flag.IntVar(&cfg.DataPort, "data", cfg.DataPort, "Data channel port")
	flag.StringVar(&cfg.OpsAddr, "addr", cfg.OpsAddr, "Ops HTTP server address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database")
	flag.BoolVar(&cfg.UseTLS, "tls", cfg.UseTLS, "Wrap both channels in TLS")
	flag.StringVar(&cfg.CertDir, "certs", cfg.CertDir, "Directory holding (or receiving) the TLS cert and key")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")

	flag.Parse()

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultDBPath returns the default database path in user's home directory.
// Creates the directory if it doesn't exist.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return "honeytrap.db"
	}

	dir := filepath.Join(home, ".honeytrap")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create .honeytrap directory, using current dir: %v", err)
		return "honeytrap.db"
	}

	return filepath.Join(dir, "honeytrap.db")
}
