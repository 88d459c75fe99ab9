package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Client is the subset of the S3 API used by S3.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Presigner creates presigned GET requests.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3 stores objects in a single bucket. It is safe for concurrent use.
type S3 struct {
	client        Client
	presigner     Presigner
	bucket        string
	uploadTimeout time.Duration
}

// Option configures S3.
type Option func(*options)

type options struct {
	client    Client
	presigner Presigner
	awsOpts   []func(*config.LoadOptions) error
}

// WithClient replaces the SDK client and presigner, typically with mocks.
func WithClient(c Client, p Presigner) Option {
	return func(o *options) {
		o.client = c
		o.presigner = p
	}
}

// WithAWSConfigOption appends an option applied when loading the AWS config.
func WithAWSConfigOption(opt func(*config.LoadOptions) error) Option {
	return func(o *options) {
		o.awsOpts = append(o.awsOpts, opt)
	}
}

// NewS3 builds the storage from cfg. Static credentials are used when both
// keys are set; otherwise the default AWS credential chain applies.
func NewS3(ctx context.Context, cfg Config, opts ...Option) (*S3, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	s := &S3{
		client:        o.client,
		presigner:     o.presigner,
		bucket:        cfg.Bucket,
		uploadTimeout: cfg.UploadTimeout,
	}
	if s.client != nil && s.presigner != nil {
		return s, nil
	}

	awsOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsOpts = append(awsOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsOpts = append(awsOpts, o.awsOpts...)

	awsCfg, err := config.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadConfig, err)
	}

	client := s3.NewFromConfig(awsCfg, func(so *s3.Options) {
		if cfg.Endpoint != "" {
			so.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		so.UsePathStyle = cfg.ForcePathStyle
	})
	s.client = client
	s.presigner = s3.NewPresignClient(client)
	return s, nil
}

// Save uploads body under key.
func (s *S3) Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if body == nil {
		return ErrNilBody
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return classify(err, "upload")
	}
	return nil
}

// Delete removes the object. Deleting a missing key succeeds.
func (s *S3) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err = classify(err, "delete"); errors.Is(err, ErrObjectNotFound) {
		return nil
	}
	return err
}

// PresignGet returns a URL that downloads the object until ttl elapses.
func (s *S3) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", classify(err, "presign")
	}
	return req.URL, nil
}

func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return key, nil
}

// classify maps SDK errors onto package errors.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrOperationTimeout, op)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s", ErrOperationCanceled, op)
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return errors.Join(ErrObjectNotFound, err)
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return errors.Join(ErrBucketNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return errors.Join(ErrObjectNotFound, err)
		case "NoSuchBucket":
			return errors.Join(ErrBucketNotFound, err)
		case "AccessDenied":
			return errors.Join(ErrAccessDenied, err)
		case "SlowDown", "ServiceUnavailable", "RequestTimeout":
			return errors.Join(ErrServiceUnavailable, err)
		}
		return fmt.Errorf("%s failed (code: %s): %w", op, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
