package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrymomot/assetmail/core/storage"
)

// Compile-time check that S3Storage implements storage.Storage interface
var _ storage.Storage = (*S3Storage)(nil)

// S3Client defines the interface for S3 operations used by S3Storage.
type S3Client interface {
	HeadObject(ctx context.Context, params *s3aws.HeadObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3aws.GetObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3aws.HeadBucketInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadBucketOutput, error)
}

// S3Presigner defines the presign operation used for download links.
type S3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3aws.GetObjectInput, optFns ...func(*s3aws.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Storage implements storage.Storage for Amazon S3 and S3-compatible services.
// Safe for concurrent use.
type S3Storage struct {
	client      S3Client
	presigner   S3Presigner
	bucket      string
	readTimeout time.Duration // Optional per-read timeout on top of the caller's deadline
	maxReadSize int64         // Objects larger than this are refused by Get
}

// S3Config contains configuration for S3 storage.
type S3Config struct {
	Bucket         string `env:"S3_BUCKET,required"`
	Region         string `env:"S3_REGION,required"`
	AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"S3_SECRET_KEY"`
	Endpoint       string `env:"S3_ENDPOINT"`                              // For S3-compatible services like MinIO, Wasabi
	ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"` // Required for MinIO and some S3-compatible services
}

// S3Option defines a function that configures S3Storage.
type S3Option func(*s3Options)

type s3Options struct {
	httpClient      *http.Client
	s3Client        S3Client
	presigner       S3Presigner
	s3ConfigOptions []func(*config.LoadOptions) error
	s3ClientOptions []func(*s3aws.Options)
	readTimeout     time.Duration
	maxReadSize     int64
}

// WithS3Client sets a custom pre-configured S3 client.
// Primarily used for testing with mocks.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.s3Client = client
	}
}

// WithPresigner sets a custom presigner. Required together with WithS3Client
// when the client is not an *s3.Client.
func WithPresigner(p S3Presigner) S3Option {
	return func(o *s3Options) {
		o.presigner = p
	}
}

// WithHTTPClient sets a custom HTTP client for S3 requests.
func WithHTTPClient(client *http.Client) S3Option {
	return func(o *s3Options) {
		o.httpClient = client
	}
}

// WithS3ConfigOption adds a custom AWS config option.
func WithS3ConfigOption(option func(*config.LoadOptions) error) S3Option {
	return func(o *s3Options) {
		o.s3ConfigOptions = append(o.s3ConfigOptions, option)
	}
}

// WithS3ClientOption adds a custom S3 client option.
func WithS3ClientOption(option func(*s3aws.Options)) S3Option {
	return func(o *s3Options) {
		o.s3ClientOptions = append(o.s3ClientOptions, option)
	}
}

// WithReadTimeout bounds each Get call. If not set, relies on context deadline from caller.
func WithReadTimeout(timeout time.Duration) S3Option {
	return func(o *s3Options) {
		o.readTimeout = timeout
	}
}

// WithMaxReadSize refuses to buffer objects larger than n bytes.
func WithMaxReadSize(n int64) S3Option {
	return func(o *s3Options) {
		o.maxReadSize = n
	}
}

// New creates a new S3 storage instance.
func New(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Storage, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, storage.ErrInvalidConfig
	}

	options := &s3Options{}
	for _, opt := range opts {
		opt(options)
	}

	client := options.s3Client
	presigner := options.presigner

	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}

		// Static credentials if provided, IAM roles/env vars otherwise
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}

		if options.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(options.httpClient))
		}

		awsOptions = append(awsOptions, options.s3ConfigOptions...)

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		client = s3aws.NewFromConfig(awsConfig, func(o *s3aws.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle

			for _, opt := range options.s3ClientOptions {
				opt(o)
			}
		})
	}

	if presigner == nil {
		realClient, ok := client.(*s3aws.Client)
		if !ok {
			return nil, fmt.Errorf("%w: presigner is required for custom S3 clients", storage.ErrInvalidConfig)
		}
		presigner = s3aws.NewPresignClient(realClient)
	}

	return &S3Storage{
		client:      client,
		presigner:   presigner,
		bucket:      cfg.Bucket,
		readTimeout: options.readTimeout,
		maxReadSize: options.maxReadSize,
	}, nil
}

// Head fetches object size and content type without reading the body.
func (s *S3Storage) Head(ctx context.Context, rawKey string) (storage.ObjectInfo, error) {
	key, err := storage.CleanKey(rawKey)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("%w: %s", err, rawKey)
	}

	out, err := s.client.HeadObject(ctx, &s3aws.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return storage.ObjectInfo{}, classifyS3Error(err, "head object", key)
	}

	return storage.ObjectInfo{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}, nil
}

// Get reads the whole object into memory.
func (s *S3Storage) Get(ctx context.Context, rawKey string) ([]byte, error) {
	key, err := storage.CleanKey(rawKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, rawKey)
	}

	if s.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.readTimeout)
		defer cancel()
	}

	out, err := s.client.GetObject(ctx, &s3aws.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyS3Error(err, "get object", key)
	}
	defer func() { _ = out.Body.Close() }()

	if s.maxReadSize > 0 && aws.ToInt64(out.ContentLength) > s.maxReadSize {
		return nil, fmt.Errorf("%w: object %s exceeds %d bytes", storage.ErrInvalidObjectState, key, s.maxReadSize)
	}

	var body io.Reader = out.Body
	if s.maxReadSize > 0 {
		body = io.LimitReader(out.Body, s.maxReadSize+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, classifyS3Error(err, "read object", key)
	}
	if s.maxReadSize > 0 && int64(len(data)) > s.maxReadSize {
		return nil, fmt.Errorf("%w: object %s exceeds %d bytes", storage.ErrInvalidObjectState, key, s.maxReadSize)
	}

	return data, nil
}

// PresignGet issues a time-limited GET URL. A non-empty downloadName is sent as
// the response content-disposition so browsers save the file instead of rendering it.
func (s *S3Storage) PresignGet(ctx context.Context, rawKey string, ttl time.Duration, downloadName string) (string, error) {
	key, err := storage.CleanKey(rawKey)
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, rawKey)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("%w: ttl must be positive", storage.ErrPresignFailed)
	}

	input := &s3aws.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if downloadName != "" {
		input.ResponseContentDisposition = aws.String(ContentDisposition(downloadName))
	}

	req, err := s.presigner.PresignGetObject(ctx, input, s3aws.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("%w: %w", storage.ErrPresignFailed, classifyS3Error(err, "presign get", key))
	}

	return req.URL, nil
}

// Ping checks that the bucket exists and is reachable with the configured credentials.
func (s *S3Storage) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3aws.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}
	err = classifyS3Error(err, "head bucket", s.bucket)
	// A bare NotFound on a bucket probe means the bucket itself is missing
	if errors.Is(err, storage.ErrFileNotFound) {
		return fmt.Errorf("%w: %s", storage.ErrBucketNotFound, s.bucket)
	}
	return err
}
