package file

import (
	"time"

	"github.com/google/uuid"
)

type UploadStatus string

const (
	StatusUploading UploadStatus = "UPLOADING"
	StatusCompleted UploadStatus = "COMPLETED"
	StatusFailed    UploadStatus = "FAILED"
)

type File struct {
	ID           uuid.UUID
	OriginalName string
	StoredName   string
	S3Key        string
	S3Bucket     string
	UploadID     string
	SizeBytes    int64
	ContentType  string
	Status       UploadStatus
	UploaderID   uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (f *File) IsCompleted() bool {
	return f.Status == StatusCompleted
}

type CreateFileInput struct {
	OriginalName string
	StoredName   string
	S3Key        string
	S3Bucket     string
	UploadID     string
	SizeBytes    int64
	ContentType  string
	UploaderID   uuid.UUID
}

// Part identifies one uploaded chunk of a multipart upload.
type Part struct {
	Number int64  `json:"part_number"`
	ETag   string `json:"etag"`
}
