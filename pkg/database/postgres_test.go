package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/miqaat-rms-api/pkg/config"
)

func TestDSNEscapesCredentials(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "rms",
		Password: "p@ss word",
		Name:     "miqaat_rms",
		SSLMode:  "disable",
	})
	assert.Equal(t, "postgres://rms:p%40ss%20word@db:5432/miqaat_rms?sslmode=disable", dsn)
}

func TestDSNWithoutSSLMode(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "localhost", Port: 5433, User: "postgres", Name: "rms"})
	assert.Equal(t, "postgres://postgres:@localhost:5433/rms", dsn)
}
