// Package config assembles a runnable simple-library service from an
// explicitly constructed, immutable configuration. Components receive the
// values they need at construction time; nothing reads configuration at
// runtime.
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-chi/jwtauth"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-library/pkg/simplelibrary"
	repomemory "github.com/tendant/simple-library/pkg/simplelibrary/repo/memory"
	repopg "github.com/tendant/simple-library/pkg/simplelibrary/repo/postgres"
	"github.com/tendant/simple-library/pkg/simplelibrary/staging"
	fsstorage "github.com/tendant/simple-library/pkg/simplelibrary/storage/fs"
	memorystorage "github.com/tendant/simple-library/pkg/simplelibrary/storage/memory"
	s3storage "github.com/tendant/simple-library/pkg/simplelibrary/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:           "8080",
		Environment:    "development",
		StorageBackend: "memory",
		AssetBaseURL:   "local://assets",
		MaxUploadBytes: staging.DefaultMaxBytes,
		JWTSecret:      "dev-secret-change-me",
	}
}

// ServerConfig represents server configuration for the simple-library service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration; empty DatabaseURL selects the in-memory repository
	DatabaseURL string

	// Storage configuration
	StorageBackend string // "memory", "fs", "s3"
	StorageDir     string // fs backend base directory
	AssetBaseURL   string // prefix under which asset locators are minted
	S3             S3Config

	// Staging configuration
	StagingDir     string
	MaxUploadBytes int64

	// Auth configuration
	JWTSecret string
}

// S3Config represents configuration for the S3 storage backend
type S3Config struct {
	Region                 string
	Bucket                 string
	AccessKeyID            string
	SecretAccessKey        string
	Endpoint               string
	UsePathStyle           bool
	CreateBucketIfNotExist bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	switch c.StorageBackend {
	case "memory":
	case "fs":
		if c.StorageDir == "" {
			return errors.New("storage directory is required for the fs backend")
		}
	case "s3":
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if c.Environment == "production" && c.JWTSecret == defaults().JWTSecret {
		return errors.New("jwt secret must be set in production")
	}
	return nil
}

// TokenAuth returns the JWT authority used to issue and verify access tokens.
func (c *ServerConfig) TokenAuth() *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(c.JWTSecret), nil)
}

// BuildService wires the repository, blob store, asset store, and staging
// area into a Service per this configuration.
func (c *ServerConfig) BuildService(ctx context.Context) (simplelibrary.Service, simplelibrary.Stager, error) {
	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	backend, err := c.buildBlobStore()
	if err != nil {
		return nil, nil, err
	}

	stager, err := staging.New(staging.Config{
		Dir:      c.StagingDir,
		MaxBytes: c.MaxUploadBytes,
	})
	if err != nil {
		return nil, nil, err
	}

	svc, err := simplelibrary.New(
		simplelibrary.WithRepository(repo),
		simplelibrary.WithAssetStore(simplelibrary.NewAssetStore(backend, c.AssetBaseURL)),
		simplelibrary.WithStager(stager),
		simplelibrary.WithEventSink(simplelibrary.NewLogEventSink(nil)),
	)
	if err != nil {
		return nil, nil, err
	}
	return svc, stager, nil
}

func (c *ServerConfig) buildRepository(ctx context.Context) (simplelibrary.Repository, error) {
	if c.DatabaseURL == "" {
		return repomemory.New(), nil
	}

	pool, err := pgxpool.New(ctx, c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return repopg.NewWithPool(pool), nil
}

func (c *ServerConfig) buildBlobStore() (simplelibrary.BlobStore, error) {
	switch c.StorageBackend {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   c.StorageDir,
			URLPrefix: c.AssetBaseURL,
		})
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 c.S3.Region,
			Bucket:                 c.S3.Bucket,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			CreateBucketIfNotExist: c.S3.CreateBucketIfNotExist,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}
