package config

import "fmt"

// DatabaseConfig holds PostgreSQL database configuration
// This is shared across all services to avoid duplication
type DatabaseConfig struct {
	Host     string `env:"CAMPUS_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"CAMPUS_PG_PORT" env-default:"5432"`
	Database string `env:"CAMPUS_PG_DATABASE" env-default:"campus_db"`
	User     string `env:"CAMPUS_PG_USER" env-default:"campus"`
	Password string `env:"CAMPUS_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"CAMPUS_PG_SCHEMA" env-default:"public"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}
