package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tradelens/hts-tracker/internal/config"
	"github.com/tradelens/hts-tracker/internal/reports/drivers"
)

var ErrStorageConfig = errors.New("invalid report storage config")

// validateStorageConfig catches settings that would only fail on the first archive
// request, e.g. a missing bucket or half of a static key pair.
func validateStorageConfig(cfg config.StorageConfig) error {
	var problems []error
	switch cfg.Type {
	case "local":
		if cfg.LocalBaseDir == "" {
			problems = append(problems, errors.New("STORAGE_LOCAL_BASE_DIR is required"))
		}
	case "s3":
		if cfg.S3Bucket == "" {
			problems = append(problems, errors.New("STORAGE_S3_BUCKET is required"))
		}
		if cfg.S3Region == "" {
			problems = append(problems, errors.New("STORAGE_S3_REGION is required"))
		}
		if (cfg.S3AccessKey == "") != (cfg.S3SecretKey == "") {
			problems = append(problems, errors.New("STORAGE_S3_ACCESS_KEY and STORAGE_S3_SECRET_KEY must be set together"))
		}
	default:
		problems = append(problems, fmt.Errorf("unsupported storage type: %q", cfg.Type))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStorageConfig, errors.Join(problems...))
}

// NewStorageFromConfig validates cfg and builds the report storage backend.
func NewStorageFromConfig(ctx context.Context, cfg config.StorageConfig) (StorageDriver, error) {
	if err := validateStorageConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.Type == "local" {
		slog.Info("initializing local report storage", "dir", cfg.LocalBaseDir)
		return drivers.NewLocalFSDriver(cfg.LocalBaseDir, cfg.LocalPublicURL)
	}

	slog.Info("initializing S3 report storage", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			// MinIO and similar endpoints need path-style addressing
			o.UsePathStyle = true
		}
	})
	return drivers.NewS3Driver(client, cfg.S3Bucket, cfg.S3PublicURL), nil
}
