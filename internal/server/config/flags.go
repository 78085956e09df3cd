package config

import (
	"flag"

	"github.com/dmitrijs2005/notekeeper/internal/flagx"
)

var serverFlags = []string{"-a", "-g", "-driver", "-d", "-s", "-t", "-n", "-cost", "-l", "-u", "-p", "-b", "-r", "-e"}

// parseFlags populates Config fields from command-line flags.
//
//	-a string       HTTP bind address (":8000")
//	-g string       gRPC bind address (empty disables gRPC)
//	-driver string  database driver: pgx | sqlite
//	-d string       database DSN
//	-s string       token HMAC secret key
//	-t duration     access token validity ("168h")
//	-n string       notes directory
//	-cost int       bcrypt cost
//	-l string       log level
//	-u, -p string   S3 access key / secret
//	-b string       S3 bucket
//	-r string       S3 region
//	-e string       S3 base endpoint
//
// Only the flags above are parsed; anything else in args is ignored.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver (pgx|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "access token validity")
	fs.StringVar(&config.NotesDir, "n", config.NotesDir, "notes directory")
	fs.IntVar(&config.BcryptCost, "cost", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 access key")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		panic(err)
	}
}
