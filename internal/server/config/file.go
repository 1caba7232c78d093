package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rnbmx/bmxshop/internal/flagx"
	"github.com/rnbmx/bmxshop/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk DTO. Duration fields accept "90s" style strings
// or integer nanoseconds. Zero values leave the current setting untouched.
type FileConfig struct {
	HTTPAddr              string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr              string         `json:"grpc_addr" yaml:"grpc_addr"`
	DatabaseDSN           string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey             string         `json:"secret_key" yaml:"secret_key"`
	KeyPolicy             string         `json:"key_policy" yaml:"key_policy"`
	TokenTTL              timex.Duration `json:"token_ttl" yaml:"token_ttl"`
	BcryptCost            int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	PublicPaths           []string       `json:"public_paths" yaml:"public_paths"`
	CORSAllowedOrigins    []string       `json:"cors_allowed_origins" yaml:"cors_allowed_origins"`
	LogLevel              string         `json:"log_level" yaml:"log_level"`
	LogFormat             string         `json:"log_format" yaml:"log_format"`
	HealthCheckInterval   timex.Duration `json:"health_check_interval" yaml:"health_check_interval"`
	ShutdownTimeout       timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	S3RootUser            string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region              string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3PresignTTL          timex.Duration `json:"s3_presign_ttl" yaml:"s3_presign_ttl"`
	PaymentPublishableKey string         `json:"payment_publishable_key" yaml:"payment_publishable_key"`
}

// parseFile loads the file named by -c/-config, if any. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON.
// It panics if the file cannot be read or decoded.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlags()
	if path == "" {
		return
	}

	b, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, c)
	default:
		err = json.Unmarshal(b, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.KeyPolicy, c.KeyPolicy)
	if c.TokenTTL.Duration > 0 {
		config.TokenTTL = c.TokenTTL.Duration
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	if len(c.PublicPaths) > 0 {
		config.PublicPaths = c.PublicPaths
	}
	if len(c.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	if c.HealthCheckInterval.Duration > 0 {
		config.HealthCheckInterval = c.HealthCheckInterval.Duration
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.S3PresignTTL.Duration > 0 {
		config.S3PresignTTL = c.S3PresignTTL.Duration
	}
	setString(&config.PaymentPublishableKey, c.PaymentPublishableKey)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
