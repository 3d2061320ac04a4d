package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
)

// UploadResult describes a stored object
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	Key       string `json:"key"`
}

// Uploader stores media and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, data []byte, mimeType, folder string) (UploadResult, error)
}

// SpacesConfig holds configuration for the S3 compatible bucket
type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	CDNURL    string
}

// SpacesClient uploads media to an S3 compatible bucket
type SpacesClient struct {
	s3Client s3iface.S3API
	bucket   string
	endpoint string
	cdnURL   string
}

var _ Uploader = (*SpacesClient)(nil)

// NewSpacesClient creates a new Spaces client
func NewSpacesClient(config SpacesConfig) (*SpacesClient, error) {
	if config.Bucket == "" || config.Region == "" {
		return nil, errors.New("SPACES_BUCKET and SPACES_REGION must be configured")
	}
	if config.Endpoint == "" {
		config.Endpoint = fmt.Sprintf("%s.digitaloceanspaces.com", config.Region)
	}

	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spaces session: %w", err)
	}

	return NewSpacesClientWithAPI(s3.New(sess), config), nil
}

// NewSpacesClientWithAPI builds a client over an existing S3 API
func NewSpacesClientWithAPI(api s3iface.S3API, config SpacesConfig) *SpacesClient {
	return &SpacesClient{
		s3Client: api,
		bucket:   config.Bucket,
		endpoint: strings.TrimPrefix(strings.TrimPrefix(config.Endpoint, "https://"), "http://"),
		cdnURL:   strings.TrimRight(config.CDNURL, "/"),
	}
}

// Upload stores data under folder with a generated key and public-read ACL
func (s *SpacesClient) Upload(ctx context.Context, data []byte, mimeType, folder string) (UploadResult, error) {
	key := GenerateKey(folder, mimeType)

	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ACL:         aws.String("public-read"),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to upload file: %w", err)
	}

	return UploadResult{SecureURL: s.publicURL(key), Key: key}, nil
}

func (s *SpacesClient) publicURL(key string) string {
	if s.cdnURL != "" {
		return fmt.Sprintf("%s/%s", s.cdnURL, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", s.bucket, s.endpoint, key)
}

// GenerateKey builds "<folder>/<yyyy/mm>/<uuid><ext>"
func GenerateKey(folder, mimeType string) string {
	ext := ""
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return fmt.Sprintf("%s/%s/%s%s",
		strings.Trim(folder, "/"),
		time.Now().UTC().Format("2006/01"),
		uuid.New().String(),
		ext,
	)
}
