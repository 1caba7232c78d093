package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name read by parseEnv.
const EnvPrefix = "SHOP_"

// parseEnv loads an optional .env file from the working directory (already
// set variables win) and applies SHOP_* variables. Durations use
// time.ParseDuration syntax; lists are comma separated.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	envString("HTTP_ADDR", &config.HTTPAddr)
	envString("GRPC_ADDR", &config.GRPCAddr)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("JWT_SECRET", &config.SecretKey)
	envString("KEY_POLICY", &config.KeyPolicy)
	envDuration("TOKEN_TTL", &config.TokenTTL)
	envInt("BCRYPT_COST", &config.BcryptCost)
	envList("PUBLIC_PATHS", &config.PublicPaths)
	envList("CORS_ALLOWED_ORIGINS", &config.CORSAllowedOrigins)
	envString("LOG_LEVEL", &config.LogLevel)
	envString("LOG_FORMAT", &config.LogFormat)
	envDuration("HEALTH_CHECK_INTERVAL", &config.HealthCheckInterval)
	envDuration("SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envDuration("S3_PRESIGN_TTL", &config.S3PresignTTL)
	envString("PAYMENT_PUBLISHABLE_KEY", &config.PaymentPublishableKey)
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		*dst = v
	}
}

func envDuration(name string, dst *time.Duration) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
	}
	*dst = d
}

func envInt(name string, dst *int) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
	}
	*dst = n
}

func envList(name string, dst *[]string) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		*dst = splitList(v)
	}
}
