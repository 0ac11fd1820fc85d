package web

import (
	"github.com/ccod-search/internal/config"
)

// Config represents the web server configuration
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Loader         LoaderConfig
	CompaniesHouse CompaniesHouseConfig
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig contains database connection settings. DatabaseURL
// set means Postgres; otherwise the SQLite file at SQLitePath is used.
type DatabaseConfig struct {
	DatabaseURL string
	SQLitePath  string
}

// LoaderConfig contains bulk load settings
type LoaderConfig struct {
	CSVPath string
}

// CompaniesHouseConfig contains the director-search API settings.
// An empty APIKey disables director search.
type CompaniesHouseConfig struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond int
}

// FromEnv builds the configuration from the environment.
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Host: config.GetEnv("WEB_HOST", "0.0.0.0"),
			Port: config.GetEnvInt("WEB_PORT", 8080),
		},
		Database: DatabaseConfig{
			DatabaseURL: config.GetEnv("DATABASE_URL", ""),
			SQLitePath:  config.GetEnv("SQLITE_PATH", "property_data.db"),
		},
		Loader: LoaderConfig{
			CSVPath: config.GetEnv("CCOD_CSV_PATH", "CCOD_FULL.csv"),
		},
		CompaniesHouse: CompaniesHouseConfig{
			APIKey:            config.GetEnv("COMPANIES_HOUSE_API_KEY", ""),
			BaseURL:           config.GetEnv("COMPANIES_HOUSE_BASE_URL", ""),
			RequestsPerSecond: config.GetEnvInt("COMPANIES_HOUSE_RPS", 2),
		},
	}
}
