// internal/config/database.go
package config

import (
	"fmt"
)

// DSN is the connection string for the configured driver. For postgres a
// DATABASE_URL takes precedence over the individual settings.
func (d *DatabaseConfig) DSN() string {
	switch {
	case d.Driver == "sqlite":
		return d.SQLitePath
	case d.URL != "":
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}
