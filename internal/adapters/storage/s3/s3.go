// Package s3 implements ports.StorageProvider against any S3-compatible
// object store (AWS, MinIO, R2, ...) using static credentials and a
// custom endpoint.
package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"comfybridge/internal/config"
	"comfybridge/internal/ports"
)

// Store is an S3-backed storage provider scoped to a single bucket.
type Store struct {
	client  *awss3.Client
	presign *awss3.PresignClient
	bucket  string
}

// New creates a new S3 store from one credential set.
func New(ctx context.Context, b config.Bucket) (*Store, error) {
	if !b.Configured() {
		return nil, fmt.Errorf("incomplete bucket configuration for endpoint %q", b.EndpointURL)
	}

	region := b.Region
	if region == "" {
		// SigV4 requires a region even for stores that ignore it.
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(b.AccessKeyID, b.SecretAccessKey, ""),
		),
		awsconfig.WithRetryMaxAttempts(3),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		o.BaseEndpoint = aws.String(b.EndpointURL)
		// Path-style keeps bucket resolution working on MinIO and friends.
		o.UsePathStyle = true
	})

	return &Store{
		client:  client,
		presign: awss3.NewPresignClient(client),
		bucket:  b.Name,
	}, nil
}

func (s *Store) Provider() string { return "s3" }

func (s *Store) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, fmt.Errorf("object_key is required")
	}

	put := &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(in.ObjectKey),
		Body:   in.Reader,
	}
	if in.ContentType != "" {
		put.ContentType = aws.String(in.ContentType)
	}
	if in.Size > 0 {
		put.ContentLength = aws.Int64(in.Size)
	}

	if _, err := s.client.PutObject(ctx, put); err != nil {
		return ports.PutObjectOutput{}, fmt.Errorf("s3 put %s: %w", in.ObjectKey, err)
	}

	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: in.Size}, nil
}

func (s *Store) GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, "", 0, fmt.Errorf("s3 get %s: %w", objectKey, err)
	}

	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return out.Body, contentType, size, nil
}

func (s *Store) DeleteObject(ctx context.Context, objectKey string) error {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	return err
}

func (s *Store) GetSignedURL(ctx context.Context, objectKey string, expiresIn time.Duration) (ports.SignedURLOutput, error) {
	req, err := s.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, awss3.WithPresignExpires(expiresIn))
	if err != nil {
		return ports.SignedURLOutput{}, fmt.Errorf("s3 presign %s: %w", objectKey, err)
	}

	return ports.SignedURLOutput{
		URL:       req.URL,
		ExpiresAt: time.Now().UTC().Add(expiresIn),
	}, nil
}
