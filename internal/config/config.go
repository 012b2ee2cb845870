package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Peers    PeersConfig    `json:"peers"`
	Reports  ReportsConfig  `json:"reports"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	User           string `json:"user"`
	Password       string `json:"password"`
	DBName         string `json:"db_name"`
	SSLMode        string `json:"ssl_mode"`
	MaxConnections int    `json:"max_connections"`
	MaxIdleConns   int    `json:"max_idle_conns"`
}

// AuthConfig holds the JWT verification settings. Tokens are minted by the
// user service; this service only validates them.
type AuthConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

// PeersConfig holds the base URLs of the peer services this service
// aggregates data from, plus the shared token asserted on every internal call.
type PeersConfig struct {
	UserServiceURL       string `json:"user_service_url"`
	FinanceServiceURL    string `json:"finance_service_url"`
	InternalServiceToken string `json:"internal_service_token"`
}

// ReportsConfig represents report generation configuration
type ReportsConfig struct {
	// SyncGeneration runs generation in the request call stack. With it off,
	// the API only commits the pending record and the worker picks it up.
	SyncGeneration bool `json:"sync_generation"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8084,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "evcenter_reports",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
		},
		Reports: ReportsConfig{
			SyncGeneration: true,
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DATABASE_PORT"); dbPort != "" {
		if p, err := strconv.Atoi(dbPort); err == nil {
			config.Database.Port = p
		}
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if token := os.Getenv("INTERNAL_SERVICE_TOKEN"); token != "" {
		config.Peers.InternalServiceToken = token
	}
	if url := os.Getenv("USER_SERVICE_URL"); url != "" {
		config.Peers.UserServiceURL = url
	}
	if url := os.Getenv("FINANCE_SERVICE_URL"); url != "" {
		config.Peers.FinanceServiceURL = url
	}
	if sync := os.Getenv("REPORTS_SYNC_GENERATION"); sync != "" {
		config.Reports.SyncGeneration = sync == "true"
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
