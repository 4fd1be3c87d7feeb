package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// mockS3Client serves objects from a map
type mockS3Client struct {
	objects map[string][]byte
	err     error
	gets    []string
}

func (m *mockS3Client) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Key)
	m.gets = append(m.gets, aws.ToString(params.Bucket)+"/"+key)
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: aws.String("image/png"),
	}, nil
}

func (m *mockS3Client) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.objects[aws.ToString(params.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func testStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:      true,
		Bucket:       "catalogue-assets",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Region:       "eu-west-1",
		Endpoint:     "localhost:9000",
		UsePathStyle: true,
	}
}

func newTestStorage(t *testing.T, client *mockS3Client, opts ...S3ObjectStorageOption) *S3ObjectStorage {
	t.Helper()
	opts = append([]S3ObjectStorageOption{WithClient(client), WithLogger(zaptest.NewLogger(t))}, opts...)
	s, err := NewS3ObjectStorage(testStorageConfig(), opts...)
	require.NoError(t, err)
	return s
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{AccessKey: "k", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half a key pair returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{Bucket: "b", AccessKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})

	t.Run("valid config applies defaults", func(t *testing.T) {
		s, err := NewS3ObjectStorage(testStorageConfig())
		require.NoError(t, err)
		assert.Equal(t, "catalogue-assets", s.Bucket())
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
		assert.Equal(t, DefaultMaxObjectSize, s.maxObjectSize)
	})

	t.Run("options override defaults", func(t *testing.T) {
		s, err := NewS3ObjectStorage(testStorageConfig(), WithPresignExpiration(time.Hour), WithMaxObjectSize(1024))
		require.NoError(t, err)
		assert.Equal(t, time.Hour, s.presignExpiration)
		assert.Equal(t, int64(1024), s.maxObjectSize)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		want     string
	}{
		{"", false, ""},
		{"localhost:9000", false, "http://localhost:9000"},
		{"minio.internal:9000", true, "https://minio.internal:9000"},
		{"https://s3.example.com", false, "https://s3.example.com"},
	}
	for _, tt := range tests {
		got, err := normalizeEndpoint(tt.endpoint, tt.useSSL)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestS3ObjectStorage_Download(t *testing.T) {
	client := &mockS3Client{objects: map[string][]byte{"images/desk.png": []byte("png-bytes")}}
	s := newTestStorage(t, client)

	obj, err := s.Download(context.Background(), "images/desk.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), obj.Data)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, []string{"catalogue-assets/images/desk.png"}, client.gets)
}

func TestS3ObjectStorage_DownloadErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		s := newTestStorage(t, &mockS3Client{objects: map[string][]byte{}})
		_, err := s.Download(context.Background(), "absent.png")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("empty key", func(t *testing.T) {
		s := newTestStorage(t, &mockS3Client{})
		_, err := s.Download(context.Background(), "")
		assert.Error(t, err)
	})

	t.Run("too large", func(t *testing.T) {
		client := &mockS3Client{objects: map[string][]byte{"big.png": []byte(strings.Repeat("x", 32))}}
		s := newTestStorage(t, client, WithMaxObjectSize(16))
		_, err := s.Download(context.Background(), "big.png")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds 16 bytes")
	})

	t.Run("transport error", func(t *testing.T) {
		boom := errors.New("connection reset")
		s := newTestStorage(t, &mockS3Client{err: boom})
		_, err := s.Download(context.Background(), "a.png")
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrObjectNotFound)
	})
}

func TestS3ObjectStorage_ObjectExists(t *testing.T) {
	s := newTestStorage(t, &mockS3Client{objects: map[string][]byte{"a.png": {1}}})

	ok, err := s.ObjectExists(context.Background(), "a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ObjectExists(context.Background(), "b.png")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.ObjectExists(context.Background(), "")
	assert.Error(t, err)
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(testStorageConfig())
	require.NoError(t, err)

	url, expiresAt, err := s.GenerateDownloadURL(context.Background(), "images/desk.png", 0)
	require.NoError(t, err)
	assert.Contains(t, url, "localhost:9000/catalogue-assets/images/desk.png")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	_, _, err = s.GenerateDownloadURL(context.Background(), "", time.Minute)
	assert.Error(t, err)
}

func TestMemoryObjectStorage(t *testing.T) {
	s := NewMemoryObjectStorage()
	ctx := context.Background()
	s.Put("a.png", []byte("abc"), "image/png")

	obj, err := s.Download(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
	obj.Data[0] = 'z'

	again, err := s.Download(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again.Data, "callers get a copy")

	_, err = s.Download(ctx, "missing.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	ok, err := s.ObjectExists(ctx, "a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	url, _, err := s.GenerateDownloadURL(ctx, "a.png", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://storage.example.com/a.png?expires="))
}
