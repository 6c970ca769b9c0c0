// Package config loads runtime configuration from the environment. A .env
// file in the working directory is picked up for local development.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const minJWTSecretLength = 32

type Config struct {
	AppName     string
	Environment string
	Port        string

	// JWTSecret signs every access and refresh token. At least 32 bytes.
	JWTSecret []byte

	MongoURI      string
	MongoDatabase string

	// RedisAddr is optional; when empty the token cache falls back to an
	// in-process one.
	RedisAddr string

	AllowedOrigins []string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AuthCodeTTL     time.Duration
}

// Load reads the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName:        GetEnv("APP_NAME", "Cleaner"),
		Environment:    GetEnv("ENVIRONMENT", "development"),
		Port:           port(),
		MongoURI:       GetEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  GetEnv("MONGO_DATABASE", "cleaner"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		AllowedOrigins: strings.Split(GetEnv("ALLOWED_ORIGINS", "*"), ","),
	}

	secret := os.Getenv("JWT_SECRET")
	if len(secret) < minJWTSecretLength {
		return nil, errors.Errorf("[config.Load] JWT_SECRET must be at least %d bytes", minJWTSecretLength)
	}
	cfg.JWTSecret = []byte(secret)

	var err error
	if cfg.AccessTokenTTL, err = durationEnv("ACCESS_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = durationEnv("REFRESH_TOKEN_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AuthCodeTTL, err = durationEnv("AUTH_CODE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	return cfg, nil
}

func port() string {
	p := GetEnv("PORT", "8080")
	if !strings.HasPrefix(p, ":") {
		p = ":" + p
	}
	return p
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func durationEnv(envVar string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "[config.durationEnv] %s", envVar)
	}
	return d, nil
}
