// Package storage selects and builds the object storage driver.
//
// Three drivers are supported:
//
//   - s3: Amazon S3 or an S3-compatible endpoint through aws-sdk-go-v2
//   - minio: a MinIO server through minio-go
//   - local: a directory on disk, with signed URLs served by the API server
//
// The local driver signs URLs with AccessKey and SecretKey and additionally
// accepts the keys listed under Local.Keys, which lets an old key keep
// working while URLs it signed are still live.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/sagarc03/datashare"
	"github.com/sagarc03/datashare/filesystem"
	"github.com/sagarc03/datashare/storage/miniostore"
	"github.com/sagarc03/datashare/storage/s3store"
)

// Config selects and configures a driver.
type Config struct {
	Driver       string      `mapstructure:"driver" validate:"required,oneof=s3 minio local"`
	Bucket       string      `mapstructure:"bucket"`
	Region       string      `mapstructure:"region"`
	Endpoint     string      `mapstructure:"endpoint"`
	AccessKey    string      `mapstructure:"access_key"`
	SecretKey    string      `mapstructure:"secret_key"`
	UsePathStyle bool        `mapstructure:"use_path_style"`
	CreateBucket bool        `mapstructure:"create_bucket"`
	Local        LocalConfig `mapstructure:"local"`
}

// LocalConfig configures the local driver.
type LocalConfig struct {
	Path string                `mapstructure:"path"`
	Keys filesystem.KeysConfig `mapstructure:"keys"`
}

// Backend is an opened driver.
type Backend struct {
	Objects datashare.ObjectStorage
	// Handler serves signed object URLs. It is only set for the local driver
	// and must be mounted on the API router.
	Handler http.Handler

	close func() error
}

// Close releases resources held by the driver.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open builds the configured driver. publicURL is the server origin used in
// local signed URLs; maxUploadSize bounds local uploads. The bucket is
// created when CreateBucket is set, and always for the local driver.
func Open(ctx context.Context, cfg Config, publicURL string, maxUploadSize int64) (*Backend, error) {
	var (
		backend *Backend
		err     error
	)

	switch cfg.Driver {
	case "s3":
		backend, err = openS3(ctx, cfg)
	case "minio":
		backend, err = openMinio(cfg)
	case "local":
		backend, err = openLocal(cfg, publicURL, maxUploadSize)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CreateBucket || cfg.Driver == "local" {
		if err = backend.Objects.EnsureBucket(ctx); err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
	}

	slog.Info("storage ready", "driver", cfg.Driver, "bucket", cfg.Bucket)
	return backend, nil
}

func openS3(ctx context.Context, cfg Config) (*Backend, error) {
	store, err := s3store.New(ctx, s3store.Config{
		Bucket:       cfg.Bucket,
		Region:       cfg.Region,
		Endpoint:     cfg.Endpoint,
		AccessKey:    cfg.AccessKey,
		SecretKey:    cfg.SecretKey,
		UsePathStyle: cfg.UsePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("open s3 storage: %w", err)
	}
	return &Backend{Objects: store}, nil
}

func openMinio(cfg Config) (*Backend, error) {
	store, err := miniostore.New(miniostore.Config{
		Endpoint:  cfg.Endpoint,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("open minio storage: %w", err)
	}
	return &Backend{Objects: store}, nil
}

func openLocal(cfg Config, publicURL string, maxUploadSize int64) (*Backend, error) {
	if cfg.Local.Path == "" {
		return nil, errors.New("open local storage: storage.local.path is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("open local storage: storage.access_key and storage.secret_key are required")
	}
	if publicURL == "" {
		return nil, errors.New("open local storage: server.public_url is required")
	}

	keys, err := filesystem.NewKeyRing(cfg.Local.Keys)
	if err != nil {
		return nil, fmt.Errorf("open local storage: %w", err)
	}
	keys.Add(cfg.AccessKey, cfg.SecretKey)

	if err = os.MkdirAll(cfg.Local.Path, 0o750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Local.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage root: %w", err)
	}

	store := filesystem.NewFileStorage(root)
	presigner := filesystem.NewPresigner(publicURL, cfg.AccessKey, cfg.SecretKey)

	return &Backend{
		Objects: filesystem.NewObjectStorage(store, presigner),
		Handler: filesystem.NewObjectHandler(store, filesystem.NewVerifier(keys), maxUploadSize),
		close:   root.Close,
	}, nil
}
