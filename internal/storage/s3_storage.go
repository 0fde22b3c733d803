package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Ralph2001/marketplace/internal/config"
)

// IObjectStorage defines the object store operations the listing flow needs.
type IObjectStorage interface {
	// Upload stores the object under key and returns its public URL.
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	// ListingImageKey builds the canonical object key for a listing image.
	ListingImageKey(listingID, filename string) string
	// PublicURL returns the public URL for an object key.
	PublicURL(key string) string
}

type s3Storage struct {
	cfg      *config.Config
	s3Client *s3.Client
}

// NewS3Storage creates the S3-backed object storage service.
func NewS3Storage(cfg *config.Config) (IObjectStorage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AWSRegion),
		// Static credentials from config; prefer IAM roles in production
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &s3Storage{
		cfg:      cfg,
		s3Client: s3.NewFromConfig(awsCfg),
	}, nil
}

// NewS3StorageWithClient wires an existing client, used by the image worker.
func NewS3StorageWithClient(cfg *config.Config, client *s3.Client) IObjectStorage {
	return &s3Storage{cfg: cfg, s3Client: client}
}

func (s *s3Storage) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.S3Bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// ListingImageKey generates a collision-free key under the listing's prefix.
// The original filename contributes only its extension; everything else is
// replaced by a UUID so uploads cannot clash or traverse paths.
func (s *s3Storage) ListingImageKey(listingID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("listings/%s/%s%s", listingID, uuid.NewString(), ext)
}

func (s *s3Storage) PublicURL(key string) string {
	if s.cfg.ImageBaseS3URL != "" {
		return strings.TrimRight(s.cfg.ImageBaseS3URL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.S3Bucket, s.cfg.AWSRegion, key)
}
