package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/AfikDanan/DayZeroAI/internal/config"
)

// Sink is where the final artifact lands. The pipeline is agnostic to
// which backend produced the returned URL string. Storing the same job id
// twice overwrites, which is what makes redelivery idempotent.
type Sink interface {
	Store(ctx context.Context, jobID, srcPath string) (string, error)
}

// NewSink selects a backend from config.
func NewSink(ctx context.Context, cfg config.Config) (Sink, error) {
	switch strings.ToLower(cfg.ArtifactBackend) {
	case "local", "":
		return &LocalSink{Dir: cfg.OutputDir, BaseURL: cfg.BaseURL}, nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, errors.New("artifact backend s3 requested but S3_BUCKET is not configured")
		}
		return newS3Sink(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", cfg.ArtifactBackend)
	}
}

// LocalSink moves the artifact into the publicly served videos directory.
type LocalSink struct {
	Dir     string
	BaseURL string
}

func (l *LocalSink) Store(_ context.Context, jobID, srcPath string) (string, error) {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	dst := filepath.Join(l.Dir, jobID+".mp4")
	if err := os.Rename(srcPath, dst); err != nil {
		// Rename fails across filesystems; fall back to a copy.
		if err := copyFile(srcPath, dst); err != nil {
			return "", fmt.Errorf("store artifact: %w", err)
		}
	}
	return fmt.Sprintf("%s/videos/%s.mp4", strings.TrimRight(l.BaseURL, "/"), jobID), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// S3Sink uploads the artifact and returns a 24h presigned GET URL.
type S3Sink struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

func newS3Sink(ctx context.Context, cfg config.Config) (*S3Sink, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:               cfg.S3Endpoint,
					HostnameImmutable: cfg.S3PathStyle,
					SigningRegion:     cfg.S3Region,
					Source:            aws.EndpointSourceCustom,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3PathStyle
	})
	return &S3Sink{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.S3Bucket,
		prefix:  cfg.S3Prefix,
	}, nil
}

func (s *S3Sink) Store(ctx context.Context, jobID, srcPath string) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	key := s.prefix + jobID + ".mp4"
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("video/mp4"),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	signed, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(24*time.Hour))
	if err != nil {
		return "", fmt.Errorf("presign artifact url: %w", err)
	}
	return signed.URL, nil
}
