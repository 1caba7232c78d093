package config

import (
	"flag"
	"os"
	"time"

	"github.com/rnbmx/bmxshop/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT signing secret ("base64:" prefix for binary keys)
//	-k string   signing key policy: strict or ephemeral
//	-t int      token validity, minutes
//	-l string   log level
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-r string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Only these flags are taken from os.Args, see flagx.FilterArgs.
// The token validity is given in whole minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-k", "-t", "-l", "-u", "-p", "-b", "-r", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port to run server")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.KeyPolicy, "k", config.KeyPolicy, "signing key policy (strict|ephemeral)")

	tokenTTL := fs.Int("t", int(config.TokenTTL.Minutes()), "token validity (in minutes)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug|info|warn|error)")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if isSet(fs, "t") {
		config.TokenTTL = time.Duration(*tokenTTL) * time.Minute
	}
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
