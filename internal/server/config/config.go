// Package config handles configuration for the server, including defaults,
// a JSON overlay and command-line flags.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the NoteKeeper server.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses; an empty gRPC
//     address disables the gRPC listener.
//   - DatabaseDriver: "pgx" (PostgreSQL) or "sqlite".
//   - DatabaseDSN: DSN for the chosen driver.
//   - SecretKey: HMAC secret for signing tokens (HS256). Changing it
//     invalidates every token already issued.
//   - AccessTokenValidityDuration: lifetime of issued and renewed tokens.
//   - NotesDir: directory holding one file per note.
//   - BcryptCost: work factor for password hashes.
//   - S3*: object storage for note archives; an empty bucket disables it.
type Config struct {
	EndpointAddrHTTP            string
	EndpointAddrGRPC            string
	DatabaseDriver              string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	NotesDir                    string
	BcryptCost                  int
	LogLevel                    string
	S3RootUser                  string
	S3RootPassword              string
	S3Bucket                    string
	S3Region                    string
	S3BaseEndpoint              string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key default is insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8000"
	c.EndpointAddrGRPC = ""
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "file:app.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 7 * 24 * time.Hour
	c.NotesDir = "notes"
	c.BcryptCost = 10
	c.LogLevel = "info"
	c.S3RootUser = ""
	c.S3RootPassword = ""
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
}

// LoadConfig builds a Config from defaults, then the optional JSON file,
// then command-line flags.
func LoadConfig() *Config {
	return loadFromArgs(os.Args[1:])
}

// LoadConfigFromArgs is LoadConfig over an explicit argument list; flags it
// does not know are ignored.
func LoadConfigFromArgs(args []string) *Config {
	return loadFromArgs(args)
}

func loadFromArgs(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
