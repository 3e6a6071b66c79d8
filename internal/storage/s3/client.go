package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"

	"board-service/internal/config"
	"board-service/internal/domain/file"
	"board-service/internal/ids"
)

const (
	emptyAWSSessionToken = ""
	uploadKeyPrefix      = "uploads"
	maxStoredNameLength  = 200

	// presigned links are served from cache only while this much validity remains
	urlCacheSafetyMargin = time.Minute

	errFailedCreateAWSSessionFmt             = "failed to create AWS session: %w"
	errFailedCreateMultipartUploadFmt        = "failed to create multipart upload: %w"
	errFailedUploadPartFmt                   = "failed to upload part %d: %w"
	errFailedCompleteMultipartUploadFmt      = "failed to complete multipart upload: %w"
	errFailedAbortMultipartUploadFmt         = "failed to abort multipart upload: %w"
	errFailedGeneratePresignedDownloadURLFmt = "failed to generate presigned download URL: %w"
	errFailedHeadBucketFmt                   = "failed to reach bucket: %w"
	errNoParts                               = "at least one part is required"
)

// Client wraps the S3 operations used for chunked uploads into a single bucket.
type Client struct {
	svc                s3iface.S3API
	bucket             string
	presignedURLExpiry time.Duration
	urls               *URLCache
}

func NewClient(cfg *config.AWSConfig, presignedURLExpiry time.Duration) (*Client, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			emptyAWSSessionToken,
		)
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf(errFailedCreateAWSSessionFmt, err)
	}

	return newClient(s3.New(sess), cfg.Bucket, presignedURLExpiry), nil
}

func newClient(svc s3iface.S3API, bucket string, presignedURLExpiry time.Duration) *Client {
	return &Client{
		svc:                svc,
		bucket:             bucket,
		presignedURLExpiry: presignedURLExpiry,
		urls:               NewURLCache(),
	}
}

func (c *Client) Bucket() string {
	return c.bucket
}

// Ping checks that the bucket is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.svc.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return fmt.Errorf(errFailedHeadBucketFmt, err)
	}
	return nil
}

func (c *Client) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	out, err := c.svc.CreateMultipartUploadWithContext(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf(errFailedCreateMultipartUploadFmt, err)
	}
	return aws.StringValue(out.UploadId), nil
}

// UploadPart sends one chunk and returns the ETag S3 assigned to it.
func (c *Client) UploadPart(ctx context.Context, key, uploadID string, partNumber int64, body io.ReadSeeker, size int64) (string, error) {
	out, err := c.svc.UploadPartWithContext(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int64(partNumber),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf(errFailedUploadPartFmt, partNumber, err)
	}
	return aws.StringValue(out.ETag), nil
}

// CompleteMultipartUpload assembles the parts in part-number order.
func (c *Client) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []file.Part) error {
	if len(parts) == 0 {
		return fmt.Errorf(errFailedCompleteMultipartUploadFmt, errors.New(errNoParts))
	}

	sorted := make([]file.Part, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	completed := make([]*s3.CompletedPart, 0, len(sorted))
	for _, p := range sorted {
		completed = append(completed, &s3.CompletedPart{
			PartNumber: aws.Int64(p.Number),
			ETag:       aws.String(p.ETag),
		})
	}

	_, err := c.svc.CompleteMultipartUploadWithContext(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(c.bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &s3.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return fmt.Errorf(errFailedCompleteMultipartUploadFmt, err)
	}
	return nil
}

func (c *Client) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	_, err := c.svc.AbortMultipartUploadWithContext(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(c.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		return fmt.Errorf(errFailedAbortMultipartUploadFmt, err)
	}
	return nil
}

// PresignedDownloadURL returns a time-limited GET link that downloads the object
// under its original file name. Links are reused while they remain valid.
func (c *Client) PresignedDownloadURL(ctx context.Context, key, fileName string) (string, error) {
	if url, ok := c.urls.Get(key); ok {
		return url, nil
	}

	req, _ := c.svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket:                     aws.String(c.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(mime.FormatMediaType("attachment", map[string]string{"filename": fileName})),
	})
	req.SetContext(ctx)

	issuedAt := time.Now()
	url, err := req.Presign(c.presignedURLExpiry)
	if err != nil {
		return "", fmt.Errorf(errFailedGeneratePresignedDownloadURLFmt, err)
	}

	if c.presignedURLExpiry > urlCacheSafetyMargin {
		c.urls.Set(key, url, issuedAt.Add(c.presignedURLExpiry-urlCacheSafetyMargin))
	}
	return url, nil
}

// StoredName prefixes the sanitized original name with a sortable unique id.
func StoredName(originalName string) string {
	name := path.Base(strings.ReplaceAll(originalName, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return -1
		case r == ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == "/" {
		name = "file"
	}
	if runes := []rune(name); len(runes) > maxStoredNameLength {
		name = string(runes[len(runes)-maxStoredNameLength:])
	}
	return ids.New() + "-" + name
}

// BuildObjectKey returns uploads/<user-id>/<stored-name>.
func BuildObjectKey(uploaderID uuid.UUID, storedName string) string {
	return path.Join(uploadKeyPrefix, uploaderID.String(), storedName)
}
