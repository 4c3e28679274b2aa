package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"billing-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the part of the S3 client the archive needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive stores generated invoice documents in an S3-compatible bucket
// (Cloudflare R2 in production).
type Archive struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewArchive builds an R2/S3 client from the storage config. It returns nil
// when storage is disabled.
func NewArchive(ctx context.Context, cfg *config.Config) (*Archive, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage enabled but no bucket configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Storage.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure storage client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
		}
	})
	return NewArchiveWithClient(client, cfg.Storage.Bucket, cfg.Storage.Prefix), nil
}

// NewArchiveWithClient wraps an existing client
func NewArchiveWithClient(client ObjectPutter, bucket, prefix string) *Archive {
	return &Archive{client: client, bucket: bucket, prefix: prefix}
}

// InvoiceKey is the object key of an invoice PDF rendered at t
func (a *Archive) InvoiceKey(invoiceNumber string, t time.Time) string {
	return path.Join(a.prefix, t.Format("2006/01"), fmt.Sprintf("%s_%s.pdf", invoiceNumber, t.Format("20060102_150405")))
}

// PutPDF uploads a PDF and returns its key
func (a *Archive) PutPDF(ctx context.Context, key string, data []byte) (string, error) {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}
