package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	put    *s3.PutObjectInput
	delete *s3.DeleteObjectInput
	err    error
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	return &s3.PutObjectOutput{}, f.err
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.delete = in
	return &s3.DeleteObjectOutput{}, f.err
}

type fakePresigner struct{}

func (fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: "https://s3.example.com/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)}, nil
}

func TestLicenseKey(t *testing.T) {
	key := LicenseKey("bank1", ".PDF")
	assert.True(t, strings.HasPrefix(key, "licenses/bank1/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	assert.True(t, strings.HasSuffix(LicenseKey("bank1", "png"), ".png"))
	assert.NotEqual(t, LicenseKey("bank1", ".pdf"), LicenseKey("bank1", ".pdf"))
}

func TestLicenseExtension(t *testing.T) {
	ext, ok := LicenseExtension("application/pdf")
	assert.True(t, ok)
	assert.Equal(t, ".pdf", ext)

	_, ok = LicenseExtension("text/html")
	assert.False(t, ok)
}

func TestUploadDeletePresign(t *testing.T) {
	objects := &fakeObjects{}
	s := &S3Storage{client: objects, presigner: fakePresigner{}, bucket: "licenses-bucket"}
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "licenses/b/x.pdf", strings.NewReader("%PDF"), "application/pdf"))
	assert.Equal(t, "licenses-bucket", aws.ToString(objects.put.Bucket))
	assert.Equal(t, "application/pdf", aws.ToString(objects.put.ContentType))

	require.NoError(t, s.Delete(ctx, "licenses/b/x.pdf"))
	assert.Equal(t, "licenses/b/x.pdf", aws.ToString(objects.delete.Key))

	url, err := s.PresignGet(ctx, "licenses/b/x.pdf", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com/licenses-bucket/licenses/b/x.pdf", url)
}

func TestUploadError(t *testing.T) {
	s := &S3Storage{client: &fakeObjects{err: errors.New("boom")}, presigner: fakePresigner{}, bucket: "b"}
	assert.Error(t, s.Upload(context.Background(), "k", strings.NewReader(""), "application/pdf"))
}
