package objectstore

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Package-level function variables so unit tests can swap the AWS SDK
// calls without a real endpoint.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	newUploader = func(c *s3.Client) *manager.Uploader {
		return manager.NewUploader(c)
	}
)

// S3Store is the production ObjectStore, backed by an S3-compatible
// endpoint. The caller supplies the bucket, key, and an absolute
// expiration for each presigned URL.
type S3Store struct {
	region      string
	baseEndpoint string
	accessKey   string
	secretKey   string
}

// NewS3Store builds an S3Store from static credentials against an
// S3-compatible endpoint (real AWS or a MinIO-style deployment).
func NewS3Store(region, baseEndpoint, accessKey, secretKey string) *S3Store {
	return &S3Store{region: region, baseEndpoint: baseEndpoint, accessKey: accessKey, secretKey: secretKey}
}

func (s *S3Store) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.accessKey, s.secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.baseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.baseEndpoint)
		}
	}), nil
}

func (s *S3Store) PutFile(ctx context.Context, bucket, key, localPath string) error {
	client, err := s.client(ctx)
	if err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	uploader := newUploader(client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("upload %s to s3://%s/%s: %w", localPath, bucket, key, err)
	}
	return nil
}

func (s *S3Store) GeneratePresignedURL(ctx context.Context, bucket, key string, expiration time.Time) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	presignClient := newS3PresignClient(client)

	ttl := time.Until(expiration)
	if ttl <= 0 {
		return "", fmt.Errorf("expiration %s is not in the future", expiration)
	}

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get s3://%s/%s: %w", bucket, key, err)
	}

	return req.URL, nil
}
