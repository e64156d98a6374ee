package userfiles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/launchbase/launchbase/pkg/logger"
)

// deleteBatchSize is the S3 DeleteObjects limit per request.
const deleteBatchSize = 1000

// S3API is the subset of the S3 client the cleaner needs. Satisfied by
// *s3.Client and by test fakes.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Cleaner removes a user's uploaded objects from the storage bucket. It is
// invoked during account deletion.
type Cleaner struct {
	client S3API
	bucket string
	log    *slog.Logger
}

// CleanerOption configures a Cleaner.
type CleanerOption func(*Cleaner)

// WithS3Client sets a pre-configured S3 client. Useful for tests.
func WithS3Client(client S3API) CleanerOption {
	return func(c *Cleaner) { c.client = client }
}

// WithLogger sets the cleaner logger.
func WithLogger(log *slog.Logger) CleanerOption {
	return func(c *Cleaner) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCleaner creates a bucket cleaner. Unless a client is injected, the AWS
// SDK client is built from the configuration, with static credentials and a
// custom endpoint for S3-compatible services.
func NewCleaner(ctx context.Context, cfg Config, opts ...CleanerOption) (*Cleaner, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	c := &Cleaner{
		bucket: cfg.Bucket,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		awsOptions := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToLoadConfig, err)
		}

		c.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return c, nil
}

// PurgeUser deletes every object under the user's prefix. A user with no
// stored objects is not an error; purging is idempotent.
func (c *Cleaner) PurgeUser(ctx context.Context, userID string) error {
	if userID == "" || strings.Contains(userID, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	prefix := "users/" + userID + "/"

	var (
		deleted           int
		continuationToken *string
	)
	for {
		page, err := c.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(c.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return fmt.Errorf("list user objects: %w", err)
		}

		if err := c.deleteBatched(ctx, page.Contents); err != nil {
			return err
		}
		deleted += len(page.Contents)

		if page.NextContinuationToken == nil {
			break
		}
		continuationToken = page.NextContinuationToken
	}

	if deleted > 0 {
		c.log.InfoContext(ctx, "purged user objects",
			logger.Component("userfiles"),
			logger.UserID(userID),
			slog.Int("count", deleted),
		)
	}
	return nil
}

func (c *Cleaner) deleteBatched(ctx context.Context, objects []types.Object) error {
	for i := 0; i < len(objects); i += deleteBatchSize {
		end := min(i+deleteBatchSize, len(objects))

		identifiers := make([]types.ObjectIdentifier, 0, end-i)
		for _, obj := range objects[i:end] {
			identifiers = append(identifiers, types.ObjectIdentifier{Key: obj.Key})
		}

		_, err := c.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(c.bucket),
			Delete: &types.Delete{Objects: identifiers},
		})
		if err != nil {
			return fmt.Errorf("delete user objects: %w", err)
		}
	}
	return nil
}
