package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baechuer/account-service/internal/application/account"
	"github.com/baechuer/account-service/internal/domain"
)

// S3Options configures an S3-compatible bucket (AWS, MinIO or R2).
type S3Options struct {
	Endpoint        string // empty means AWS default resolution
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
	CDNBaseURL      string // public prefix for uploaded keys
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3AvatarStore uploads avatar images and returns their public URL.
type S3AvatarStore struct {
	client     s3API
	bucket     string
	cdnBaseURL string
	log        zerolog.Logger
}

func NewS3AvatarStore(ctx context.Context, opts S3Options, log zerolog.Logger) (*S3AvatarStore, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	if opts.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               opts.Endpoint,
				HostnameImmutable: true,
			}, nil
		})
		loadOpts = append(loadOpts, config.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
	})

	return newS3AvatarStore(client, opts, log), nil
}

func newS3AvatarStore(client s3API, opts S3Options, log zerolog.Logger) *S3AvatarStore {
	base := strings.TrimRight(opts.CDNBaseURL, "/")
	if base == "" && opts.Endpoint != "" {
		base = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
	}
	return &S3AvatarStore{
		client:     client,
		bucket:     opts.Bucket,
		cdnBaseURL: base,
		log:        log,
	}
}

// Upload stores file under folder/<uuid><ext>. Only image types are accepted.
func (c *S3AvatarStore) Upload(ctx context.Context, file account.AvatarFile, folder string) (string, error) {
	if file.Body == nil {
		return "", fmt.Errorf("avatar: empty body")
	}
	ext, ok := domain.AvatarExt(file.ContentType)
	if !ok {
		return "", fmt.Errorf("avatar: unsupported content type %q", file.ContentType)
	}
	if e := strings.ToLower(path.Ext(file.Filename)); e == ".jpeg" || e == ext {
		ext = e
	}

	key := path.Join(strings.Trim(folder, "/"), uuid.NewString()+ext)

	in := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        file.Body,
		ContentType: aws.String(file.ContentType),
	}
	if file.Size > 0 {
		in.ContentLength = aws.Int64(file.Size)
	}

	if _, err := c.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}

	c.log.Debug().Str("key", key).Int64("size", file.Size).Msg("avatar uploaded")
	return c.PublicURL(key), nil
}

func (c *S3AvatarStore) PublicURL(objectKey string) string {
	return c.cdnBaseURL + "/" + objectKey
}

// Delete removes an object by the public URL Upload returned for it.
func (c *S3AvatarStore) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, c.cdnBaseURL+"/")
	if !ok || key == "" {
		return fmt.Errorf("avatar: %q is not served from bucket %s", url, c.bucket)
	}
	if _, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	c.log.Debug().Str("key", key).Msg("avatar deleted")
	return nil
}

// EnsureBucket creates the bucket when it is missing. Used in dev against MinIO.
func (c *S3AvatarStore) EnsureBucket(ctx context.Context) error {
	if _, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err == nil {
		return nil
	}
	c.log.Info().Str("bucket", c.bucket).Msg("creating bucket")
	if _, err := c.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", c.bucket, err)
	}
	return nil
}
