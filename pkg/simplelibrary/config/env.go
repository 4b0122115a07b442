package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/simple-library/pkg/simplelibrary/staging"
)

// envConfig is the flat environment surface read by cleanenv.
//
//	PORT             - server port (default "8080")
//	ENVIRONMENT      - development, production, testing
//	DATABASE_URL     - postgres connection string; empty selects the memory repository
//	STORAGE_URL      - one of:
//	                     memory://
//	                     file:///path/to/data
//	                     s3://bucket?region=us-east-1&endpoint=...&path-style=true&create-bucket=true
//	ASSET_BASE_URL   - prefix under which asset locators are minted
//	STAGING_DIR      - directory for staged uploads (default: temp dir)
//	MAX_UPLOAD_BYTES - per-asset staging cap (default 30 MB)
//	JWT_SECRET       - HMAC secret for access tokens
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY - s3 credentials (optional)
type envConfig struct {
	Port            string `env:"PORT" env-default:"8080"`
	Environment     string `env:"ENVIRONMENT" env-default:"development"`
	DatabaseURL     string `env:"DATABASE_URL"`
	StorageURL      string `env:"STORAGE_URL" env-default:"memory://"`
	AssetBaseURL    string `env:"ASSET_BASE_URL" env-default:"local://assets"`
	StagingDir      string `env:"STAGING_DIR"`
	MaxUploadBytes  int64  `env:"MAX_UPLOAD_BYTES"`
	JWTSecret       string `env:"JWT_SECRET"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

// LoadServerConfig builds a ServerConfig from the environment.
func LoadServerConfig() (*ServerConfig, error) {
	var env envConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return Load(WithEnvConfig(env))
}

// WithEnvConfig maps a parsed environment onto the ServerConfig.
func WithEnvConfig(env envConfig) Option {
	return func(c *ServerConfig) error {
		if env.Port != "" {
			c.Port = env.Port
		}
		if env.Environment != "" {
			c.Environment = env.Environment
		}
		c.DatabaseURL = env.DatabaseURL
		if env.AssetBaseURL != "" {
			c.AssetBaseURL = env.AssetBaseURL
		}
		if env.StagingDir != "" {
			c.StagingDir = env.StagingDir
		}
		if env.MaxUploadBytes > 0 {
			c.MaxUploadBytes = env.MaxUploadBytes
		}
		if env.MaxUploadBytes == 0 {
			c.MaxUploadBytes = staging.DefaultMaxBytes
		}
		if env.JWTSecret != "" {
			c.JWTSecret = env.JWTSecret
		}
		return applyStorageURL(c, env)
	}
}

func applyStorageURL(c *ServerConfig, env envConfig) error {
	storageURL := env.StorageURL
	if storageURL == "" || storageURL == "memory://" {
		c.StorageBackend = "memory"
		return nil
	}

	parsed, err := url.Parse(storageURL)
	if err != nil {
		return fmt.Errorf("parse STORAGE_URL: %w", err)
	}

	switch parsed.Scheme {
	case "memory":
		c.StorageBackend = "memory"
	case "file":
		c.StorageBackend = "fs"
		c.StorageDir = parsed.Path
		if c.StorageDir == "" {
			return fmt.Errorf("file STORAGE_URL %q has no path", storageURL)
		}
	case "s3":
		c.StorageBackend = "s3"
		c.S3 = S3Config{
			Bucket:                 parsed.Host,
			Region:                 parsed.Query().Get("region"),
			Endpoint:               parsed.Query().Get("endpoint"),
			UsePathStyle:           parseBool(parsed.Query().Get("path-style")),
			CreateBucketIfNotExist: parseBool(parsed.Query().Get("create-bucket")),
			AccessKeyID:            env.AccessKeyID,
			SecretAccessKey:        env.SecretAccessKey,
		}
	default:
		return fmt.Errorf("unsupported STORAGE_URL scheme %q (use memory://, file://, or s3://)", parsed.Scheme)
	}
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}
