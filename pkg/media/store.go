package media

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Provider names the S3-compatible storage vendor
type Provider string

const (
	ProviderAWS    Provider = "aws"
	ProviderWasabi Provider = "wasabi"
)

const (
	defaultMaxDimension = 1600
	defaultJPEGQuality  = 82
)

// wasabiEndpoints maps regions to Wasabi endpoints
var wasabiEndpoints = map[string]string{
	"us-east-1":      "s3.us-east-1.wasabisys.com",
	"us-east-2":      "s3.us-east-2.wasabisys.com",
	"us-west-1":      "s3.us-west-1.wasabisys.com",
	"eu-central-1":   "s3.eu-central-1.wasabisys.com",
	"eu-west-1":      "s3.eu-west-1.wasabisys.com",
	"eu-west-2":      "s3.eu-west-2.wasabisys.com",
	"ap-northeast-1": "s3.ap-northeast-1.wasabisys.com",
	"ap-northeast-2": "s3.ap-northeast-2.wasabisys.com",
	"ap-southeast-1": "s3.ap-southeast-1.wasabisys.com",
	"ap-southeast-2": "s3.ap-southeast-2.wasabisys.com",
}

type Config struct {
	Provider        Provider
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string // custom S3-compatible endpoint, path-style
	PublicBaseURL   string // CDN or public bucket URL; derived when empty
	Folder          string
	MaxBytes        int
	MaxDimension    int
	JPEGQuality     int
}

// objectAPI is the subset of *s3.Client the store needs.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store validates, compresses and uploads inline images to a bucket.
type S3Store struct {
	client  objectAPI
	cfg     Config
	baseURL string
	newKey  func() string
}

func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newStore(client, cfg), nil
}

func newStore(client objectAPI, cfg Config) *S3Store {
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = defaultMaxDimension
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = defaultJPEGQuality
	}
	cfg.Folder = strings.Trim(cfg.Folder, "/")

	return &S3Store{
		client:  client,
		cfg:     cfg,
		baseURL: publicBaseURL(cfg),
		newKey:  uuid.NewString,
	}
}

// Store uploads one data URI and returns its public URL.
func (s *S3Store) Store(ctx context.Context, encoded string) (string, error) {
	_, data, err := ParseDataURI(encoded, s.cfg.MaxBytes)
	if err != nil {
		return "", err
	}
	if _, err := DetectImageType(data); err != nil {
		return "", err
	}

	compressed, err := compressImage(data, s.cfg.MaxDimension, s.cfg.JPEGQuality)
	if err != nil {
		return "", err
	}

	key := path.Join(s.cfg.Folder, s.newKey()+".jpg")
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.cfg.Bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(compressed),
		ContentType:  aws.String("image/jpeg"),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return s.baseURL + "/" + key, nil
}

// Delete removes an object previously returned by Store. URLs that do not
// belong to this store are ignored.
func (s *S3Store) Delete(ctx context.Context, url string) error {
	key, ok := s.keyFor(url)
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) keyFor(url string) (string, bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}

func publicBaseURL(cfg Config) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	case cfg.Provider == ProviderWasabi:
		return "https://" + wasabiEndpoint(cfg.Region) + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

func wasabiEndpoint(region string) string {
	if endpoint, ok := wasabiEndpoints[region]; ok {
		return endpoint
	}
	// Default to ap-southeast-1 if region not found
	return "s3.ap-southeast-1.wasabisys.com"
}

// newS3Client creates an S3 client for AWS, Wasabi or a custom endpoint
func newS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	switch {
	case cfg.Endpoint != "":
		return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}), nil
	case cfg.Provider == ProviderWasabi:
		// Wasabi requires custom endpoint and path-style addressing
		return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String("https://" + wasabiEndpoint(cfg.Region))
			o.UsePathStyle = true
		}), nil
	default:
		return s3.NewFromConfig(awsCfg), nil
	}
}

// Disabled is used when no bucket is configured; every upload fails.
type Disabled struct{}

func (Disabled) Store(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Delete(context.Context, string) error {
	return nil
}
