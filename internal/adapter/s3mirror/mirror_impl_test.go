package s3mirror

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePutter struct {
	bucket, key, body string
	err               error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestMirrorUploadsCollection(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "databox")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	file := filepath.Join(dir, "image_metadata.json")
	require.NoError(t, os.WriteFile(file, []byte(`[]`), 0o644))

	putter := &fakePutter{}
	m := NewWithClient(putter, "bucket", "collections", zap.NewNop())
	require.NoError(t, m.Mirror(context.Background(), file))

	assert.Equal(t, "bucket", putter.bucket)
	assert.Equal(t, "collections/databox/image_metadata.json", putter.key)
	assert.Equal(t, "[]", putter.body)
}

func TestMirrorErrors(t *testing.T) {
	m := NewWithClient(&fakePutter{err: errors.New("denied")}, "b", "p", zap.NewNop())
	assert.Error(t, m.Mirror(context.Background(), filepath.Join(t.TempDir(), "missing.json")))

	file := filepath.Join(t.TempDir(), "image_metadata.json")
	require.NoError(t, os.WriteFile(file, []byte(`[]`), 0o644))
	assert.ErrorContains(t, m.Mirror(context.Background(), file), "denied")
}
