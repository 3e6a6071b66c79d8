package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"board-service/internal/config"
	"board-service/internal/domain/file"
)

type fakeS3 struct {
	s3iface.S3API

	created   *s3.CreateMultipartUploadInput
	uploaded  []*s3.UploadPartInput
	completed *s3.CompleteMultipartUploadInput
	aborted   *s3.AbortMultipartUploadInput
	body      []byte
	err       error
}

func (f *fakeS3) CreateMultipartUploadWithContext(_ aws.Context, in *s3.CreateMultipartUploadInput, _ ...request.Option) (*s3.CreateMultipartUploadOutput, error) {
	f.created = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-123")}, nil
}

func (f *fakeS3) UploadPartWithContext(_ aws.Context, in *s3.UploadPartInput, _ ...request.Option) (*s3.UploadPartOutput, error) {
	f.uploaded = append(f.uploaded, in)
	if f.err != nil {
		return nil, f.err
	}
	f.body, _ = io.ReadAll(in.Body)
	return &s3.UploadPartOutput{ETag: aws.String(`"etag-1"`)}, nil
}

func (f *fakeS3) CompleteMultipartUploadWithContext(_ aws.Context, in *s3.CompleteMultipartUploadInput, _ ...request.Option) (*s3.CompleteMultipartUploadOutput, error) {
	f.completed = in
	return &s3.CompleteMultipartUploadOutput{}, f.err
}

func (f *fakeS3) AbortMultipartUploadWithContext(_ aws.Context, in *s3.AbortMultipartUploadInput, _ ...request.Option) (*s3.AbortMultipartUploadOutput, error) {
	f.aborted = in
	return &s3.AbortMultipartUploadOutput{}, f.err
}

func (f *fakeS3) HeadBucketWithContext(_ aws.Context, in *s3.HeadBucketInput, _ ...request.Option) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.err
}

func TestMultipartLifecycle(t *testing.T) {
	fake := &fakeS3{}
	c := newClient(fake, "board-uploads", time.Minute)
	ctx := context.Background()

	uploadID, err := c.CreateMultipartUpload(ctx, "uploads/u/key.bin", "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "upload-123", uploadID)
	assert.Equal(t, "board-uploads", aws.StringValue(fake.created.Bucket))
	assert.Equal(t, "application/octet-stream", aws.StringValue(fake.created.ContentType))

	etag, err := c.UploadPart(ctx, "uploads/u/key.bin", uploadID, 1, bytes.NewReader([]byte("chunk")), 5)
	require.NoError(t, err)
	assert.Equal(t, `"etag-1"`, etag)
	assert.Equal(t, []byte("chunk"), fake.body)
	assert.Equal(t, int64(1), aws.Int64Value(fake.uploaded[0].PartNumber))

	err = c.CompleteMultipartUpload(ctx, "uploads/u/key.bin", uploadID, []file.Part{
		{Number: 2, ETag: "b"}, {Number: 1, ETag: "a"},
	})
	require.NoError(t, err)
	parts := fake.completed.MultipartUpload.Parts
	require.Len(t, parts, 2)
	assert.Equal(t, int64(1), aws.Int64Value(parts[0].PartNumber))
	assert.Equal(t, "a", aws.StringValue(parts[0].ETag))

	require.NoError(t, c.AbortMultipartUpload(ctx, "uploads/u/key.bin", uploadID))
	assert.Equal(t, uploadID, aws.StringValue(fake.aborted.UploadId))
}

func TestCompleteRequiresParts(t *testing.T) {
	c := newClient(&fakeS3{}, "b", time.Minute)
	err := c.CompleteMultipartUpload(context.Background(), "k", "u", nil)
	require.Error(t, err)
}

func TestErrorsAreWrapped(t *testing.T) {
	boom := errors.New("boom")
	c := newClient(&fakeS3{err: boom}, "b", time.Minute)

	_, err := c.CreateMultipartUpload(context.Background(), "k", "text/plain")
	assert.ErrorIs(t, err, boom)

	_, err = c.UploadPart(context.Background(), "k", "u", 3, bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "part 3")

	assert.ErrorIs(t, c.Ping(context.Background()), boom)
}

func TestPresignedDownloadURL(t *testing.T) {
	c, err := NewClient(&config.AWSConfig{
		Region:          "us-east-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Bucket:          "board-uploads",
		Endpoint:        "http://localhost:9000",
		ForcePathStyle:  true,
	}, 15*time.Minute)
	require.NoError(t, err)

	link, err := c.PresignedDownloadURL(context.Background(), "uploads/u/01HX-report.pdf", "report.pdf")
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/board-uploads/uploads/u/01HX-report.pdf", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.Contains(t, u.Query().Get("response-content-disposition"), "report.pdf")

	again, err := c.PresignedDownloadURL(context.Background(), "uploads/u/01HX-report.pdf", "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, link, again)
}

func TestStoredNameAndObjectKey(t *testing.T) {
	name := StoredName(`..\..\evil dir/my report.pdf`)
	parts := strings.SplitN(name, "-", 2)
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 26)
	assert.Equal(t, "my_report.pdf", parts[1])

	assert.True(t, strings.HasSuffix(StoredName(""), "-file"))

	uploader := uuid.MustParse("7f1c2a7e-1111-4a4a-9b9b-123456789abc")
	assert.Equal(t, "uploads/7f1c2a7e-1111-4a4a-9b9b-123456789abc/01HX-a.txt", BuildObjectKey(uploader, "01HX-a.txt"))
}
