// Package archive uploads exported payout files to S3 compatible storage.
package archive

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/cowprotocol/solver-rewards/business/payouts/app"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/logger"
)

const maxParallelUploads = 4

// Config holds the bucket settings.
type Config struct {
	Bucket         string
	Region         string
	Endpoint       string // empty for AWS
	Prefix         string
	AccessKey      string // empty uses the default credential chain
	SecretKey      string
	ForcePathStyle bool
}

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive implements app.Archiver.
type Archive struct {
	client ObjectPutter
	bucket string
	prefix string
	logger logger.LoggerInterface
}

var _ app.Archiver = (*Archive)(nil)

// New creates an archive from cfg.
func New(ctx context.Context, cfg Config, log logger.LoggerInterface) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive: bucket name is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("archive: region is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix, log), nil
}

// NewWithClient creates an archive over an existing client.
func NewWithClient(client ObjectPutter, bucket, prefix string, log logger.LoggerInterface) *Archive {
	return &Archive{client: client, bucket: bucket, prefix: prefix, logger: log}
}

// Key returns the object key of file under runPrefix.
func (a *Archive) Key(runPrefix, file string) string {
	return path.Join(a.prefix, runPrefix, filepath.Base(file))
}

// Archive implements app.Archiver.
func (a *Archive) Archive(ctx context.Context, runPrefix string, files []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)
	for _, file := range files {
		g.Go(func() error {
			return a.put(gctx, a.Key(runPrefix, file), file)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info(ctx, "payout files archived", "bucket", a.bucket, "prefix", path.Join(a.prefix, runPrefix), "files", len(files))
	return nil
}

func (a *Archive) put(ctx context.Context, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return apperror.External(apperror.CodeExportFailed, "open "+file, err)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(file))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	}); err != nil {
		return apperror.External(apperror.CodeExportFailed, fmt.Sprintf("put s3://%s/%s", a.bucket, key), err)
	}
	a.logger.Debug(ctx, "object uploaded", "key", key)
	return nil
}
