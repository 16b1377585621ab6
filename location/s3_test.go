package location

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("no such key")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func TestS3MissingObject(t *testing.T) {
	loc := NewS3(newFakeS3(), "bucket", "memo/cache.memo")
	_, err := loc.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "s3://bucket/memo/cache.memo", loc.String())
}

func TestS3SaveLoad(t *testing.T) {
	client := newFakeS3()
	loc := NewS3(client, "bucket", "memo/cache.memo")
	ctx := context.Background()

	require.NoError(t, loc.Save(ctx, []byte("snapshot")))
	data, err := loc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("snapshot"), data)
	assert.Equal(t, 1, client.puts)
}

func TestS3PrefixIsInvalid(t *testing.T) {
	client := newFakeS3()
	for _, key := range []string{"", "memo/"} {
		loc := NewS3(client, "bucket", key)
		_, err := loc.Load(context.Background())
		assert.ErrorIs(t, err, ErrInvalid)
		assert.ErrorIs(t, loc.Save(context.Background(), []byte("x")), ErrInvalid)
	}
	assert.Zero(t, client.puts)
}
