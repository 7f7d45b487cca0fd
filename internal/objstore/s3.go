package objstore

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const presignTTL = 15 * time.Minute

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string

	// Base URL the stored objects are served from. When empty the
	// endpoint/bucket pair is used.
	PublicBaseURL string
}

// S3Store hands out presigned PUT URLs for book cover uploads. The API
// never proxies the image bytes, clients upload directly to the bucket.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	cfg     Config
}

func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
		}
		o.UsePathStyle = true
	})

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
	}, nil
}

func (s *S3Store) PresignCoverPut(ctx context.Context, bookID int64, filename string) (key string, uploadURL string, publicURL string, err error) {
	key = fmt.Sprintf("books/%d/%s%s", bookID, uuid.NewString(), safeExt(filename))

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.cfg.Bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", "", "", fmt.Errorf("presign cover upload: %w", err)
	}

	return key, req.URL, s.objectURL(key), nil
}

func (s *S3Store) objectURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	}

	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Bucket, key)
}

// safeExt keeps only the file extension from a client-supplied name.
func safeExt(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(filename)))

	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		return ext
	default:
		return ""
	}
}
