package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"billing-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestNewArchiveDisabled(t *testing.T) {
	a, err := NewArchive(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestNewArchiveRequiresBucket(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Enabled = true
	_, err := NewArchive(context.Background(), cfg)
	assert.Error(t, err)
}

func TestInvoiceKey(t *testing.T) {
	a := NewArchiveWithClient(&fakePutter{}, "docs", "invoices/")
	ts := time.Date(2026, 4, 2, 9, 30, 15, 0, time.UTC)
	assert.Equal(t, "invoices/2026/04/INV-000042_20260402_093015.pdf", a.InvoiceKey("INV-000042", ts))
}

func TestPutPDF(t *testing.T) {
	fake := &fakePutter{}
	a := NewArchiveWithClient(fake, "docs", "invoices")

	key, err := a.PutPDF(context.Background(), "invoices/x.pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	assert.Equal(t, "invoices/x.pdf", key)
	assert.Equal(t, "docs", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "application/pdf", aws.ToString(fake.input.ContentType))
	assert.Equal(t, []byte("%PDF-1.3"), fake.body)

	fake.err = errors.New("network down")
	_, err = a.PutPDF(context.Background(), "invoices/y.pdf", nil)
	assert.ErrorContains(t, err, "network down")
}
