package s3mirror

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// PutObjectAPI is the subset of the S3 client the mirror uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Mirror uploads the rewritten collection file to S3 under
// prefix/<output dir name>/<file name>.
type Mirror struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

// New builds an S3 client. Empty keys fall back to the default AWS chain.
func New(ctx context.Context, accessKey, secretKey, region, bucket, prefix string, logger *zap.Logger) (*Mirror, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client PutObjectAPI, bucket, prefix string, logger *zap.Logger) *Mirror {
	return &Mirror{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// Key returns the object key used for a local collection path.
func (m *Mirror) Key(localPath string) string {
	dir := filepath.Base(filepath.Dir(localPath))
	return path.Join(m.prefix, dir, filepath.Base(localPath))
}

func (m *Mirror) Mirror(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open collection file: %w", err)
	}
	defer f.Close()

	key := m.Key(localPath)
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", m.bucket, key, err)
	}
	m.logger.Info("collection mirrored", zap.String("bucket", m.bucket), zap.String("key", key))
	return nil
}
