package handler

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"board-service/internal/domain/file"
	"board-service/internal/domain/user"
	apperrors "board-service/pkg/errors"
)

type fileFixture struct {
	files    *memFileStore
	storage  *fakeStorage
	uploads  *countingUploads
	auditor  *captureAuditor
	handler  *FileHandler
	uploader *user.User
}

func newFileFixture(files ...*file.File) *fileFixture {
	f := &fileFixture{
		files:    newMemFileStore(files...),
		storage:  newFakeStorage(),
		uploads:  &countingUploads{},
		auditor:  &captureAuditor{},
		uploader: newUser("uploader@example.com", user.RoleUser),
	}
	f.handler = NewFileHandler(f.files, f.storage, testChecker, UploadLimits{
		ChunkSize:   8,
		MaxFileSize: 64,
		URLExpiry:   15 * time.Minute,
	}, testPages, f.uploads, f.auditor, nil)
	return f
}

func (f *fileFixture) addFile(uploaderID uuid.UUID, status file.UploadStatus) *file.File {
	stored := &file.File{
		ID:           uuid.New(),
		OriginalName: "report.pdf",
		StoredName:   "01J-report.pdf",
		S3Key:        "uploads/" + uploaderID.String() + "/01J-report.pdf",
		S3Bucket:     "board-test",
		UploadID:     "upload-1",
		SizeBytes:    20,
		ContentType:  "application/pdf",
		Status:       status,
		UploaderID:   uploaderID,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	f.files.files[stored.ID] = stored
	return stored
}

func TestInitiateUpload(t *testing.T) {
	f := newFileFixture()

	rec, err := run(t, f.handler.InitiateUpload, testCall{
		method:    http.MethodPost,
		body:      `{"file_name":"report.pdf","content_type":"application/pdf","size_bytes":20}`,
		principal: principalFor(f.uploader),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp InitiateUploadResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, int64(8), resp.ChunkSize)
	assert.Equal(t, int64(3), resp.TotalParts)
	assert.NotEmpty(t, resp.UploadID)

	require.Len(t, f.storage.created, 1)
	key := f.storage.created[0]
	assert.True(t, strings.HasPrefix(key, "uploads/"+f.uploader.ID.String()+"/"))
	assert.True(t, strings.HasSuffix(key, "-report.pdf"))
	assert.Equal(t, file.StatusUploading, f.files.status(resp.FileID))
	assert.Equal(t, 1, f.uploads.count(uploadEventStarted))
}

func TestInitiateUploadValidation(t *testing.T) {
	f := newFileFixture()

	bodies := []string{
		`{"file_name":"../etc/passwd","size_bytes":10}`,
		`{"file_name":"a.txt","size_bytes":0}`,
		`{"file_name":"a.txt","size_bytes":65}`,
		`{"file_name":"a.txt","content_type":"not a type;;","size_bytes":10}`,
	}
	for _, body := range bodies {
		_, err := run(t, f.handler.InitiateUpload, testCall{method: http.MethodPost, body: body, principal: principalFor(f.uploader)})
		requireCode(t, err, apperrors.CodeValidation)
	}
	assert.Empty(t, f.storage.created)
}

func TestInitiateUploadAbortsWhenRecordFails(t *testing.T) {
	f := newFileFixture()
	f.files.createErr = apperrors.InternalServer("", errors.New("db down"))

	_, err := run(t, f.handler.InitiateUpload, testCall{
		method:    http.MethodPost,
		body:      `{"file_name":"a.txt","size_bytes":10}`,
		principal: principalFor(f.uploader),
	})
	requireCode(t, err, apperrors.CodeInternalServer)
	assert.Equal(t, f.storage.created, f.storage.aborted)
	assert.Equal(t, 1, f.uploads.count(uploadEventFailed))
}

func TestInitiateUploadStorageFailure(t *testing.T) {
	f := newFileFixture()
	f.storage.createErr = errors.New("s3 unavailable")

	_, err := run(t, f.handler.InitiateUpload, testCall{
		method:    http.MethodPost,
		body:      `{"file_name":"a.txt","size_bytes":10}`,
		principal: principalFor(f.uploader),
	})
	requireCode(t, err, apperrors.CodeInternalServer)
	assert.Empty(t, f.files.files)
}

func TestUploadPart(t *testing.T) {
	f := newFileFixture()
	stored := f.addFile(f.uploader.ID, file.StatusUploading)
	params := func(part string) map[string]string {
		return map[string]string{paramID: stored.ID.String(), paramPart: part}
	}

	rec, err := run(t, f.handler.UploadPart, testCall{
		method: http.MethodPut, body: "12345678", raw: true,
		principal: principalFor(f.uploader), params: params("1"),
	})
	require.NoError(t, err)
	var resp UploadPartResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, int64(1), resp.PartNumber)
	assert.NotEmpty(t, resp.ETag)
	assert.Equal(t, int64(8), f.storage.parts[1])

	_, err = run(t, f.handler.UploadPart, testCall{
		method: http.MethodPut, body: "123456789", raw: true,
		principal: principalFor(f.uploader), params: params("2"),
	})
	requireCode(t, err, apperrors.CodeFileUpload)

	_, err = run(t, f.handler.UploadPart, testCall{
		method: http.MethodPut, principal: principalFor(f.uploader), params: params("2"),
	})
	requireCode(t, err, apperrors.CodeFileUpload)

	_, err = run(t, f.handler.UploadPart, testCall{
		method: http.MethodPut, body: "x", raw: true,
		principal: principalFor(f.uploader), params: params("0"),
	})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = run(t, f.handler.UploadPart, testCall{
		method: http.MethodPut, body: "x", raw: true,
		principal: principalFor(f.uploader), params: params("one"),
	})
	requireCode(t, err, apperrors.CodeBadRequest)
}

func TestUploadPartHiddenFromOtherUsers(t *testing.T) {
	f := newFileFixture()
	stored := f.addFile(f.uploader.ID, file.StatusUploading)
	admin := newUser("admin@example.com", user.RoleAdmin)

	_, err := run(t, f.handler.UploadPart, testCall{
		method: http.MethodPut, body: "x", raw: true, principal: principalFor(admin),
		params: map[string]string{paramID: stored.ID.String(), paramPart: "1"},
	})
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestCompleteUpload(t *testing.T) {
	f := newFileFixture()
	stored := f.addFile(f.uploader.ID, file.StatusUploading)
	call := func(body string) error {
		_, err := run(t, f.handler.Complete, testCall{
			method: http.MethodPost, body: body, principal: principalFor(f.uploader),
			params: map[string]string{paramID: stored.ID.String()},
		})
		return err
	}

	requireCode(t, call(`{"parts":[]}`), apperrors.CodeValidation)
	requireCode(t, call(`{"parts":[{"part_number":1,"etag":""}]}`), apperrors.CodeValidation)
	requireCode(t, call(`{"parts":[{"part_number":1,"etag":"a"},{"part_number":1,"etag":"b"}]}`), apperrors.CodeValidation)
	requireCode(t, call(`{"parts":[{"part_number":10001,"etag":"a"}]}`), apperrors.CodeValidation)

	require.NoError(t, call(`{"parts":[{"part_number":2,"etag":"b"},{"part_number":1,"etag":"a"}]}`))
	assert.Equal(t, file.StatusCompleted, f.files.status(stored.ID))
	require.Len(t, f.storage.completed, 1)
	assert.Equal(t, 1, f.uploads.count(uploadEventCompleted))

	requireCode(t, call(`{"parts":[{"part_number":1,"etag":"a"}]}`), apperrors.CodeConflict)
}

func TestCompleteUploadStorageFailureKeepsUploading(t *testing.T) {
	f := newFileFixture()
	stored := f.addFile(f.uploader.ID, file.StatusUploading)
	f.storage.completeErr = errors.New("InvalidPart")

	_, err := run(t, f.handler.Complete, testCall{
		method: http.MethodPost, body: `{"parts":[{"part_number":1,"etag":"a"}]}`,
		principal: principalFor(f.uploader), params: map[string]string{paramID: stored.ID.String()},
	})
	requireCode(t, err, apperrors.CodeInternalServer)
	assert.Equal(t, file.StatusUploading, f.files.status(stored.ID))
}

func TestAbortUpload(t *testing.T) {
	f := newFileFixture()
	stored := f.addFile(f.uploader.ID, file.StatusUploading)
	params := map[string]string{paramID: stored.ID.String()}

	_, err := run(t, f.handler.Abort, testCall{method: http.MethodDelete, principal: principalFor(f.uploader), params: params})
	require.NoError(t, err)
	assert.Equal(t, file.StatusFailed, f.files.status(stored.ID))
	assert.Equal(t, []string{stored.S3Key}, f.storage.aborted)

	_, err = run(t, f.handler.Abort, testCall{method: http.MethodDelete, principal: principalFor(f.uploader), params: params})
	requireCode(t, err, apperrors.CodeConflict)
}

func TestDownloadVisibility(t *testing.T) {
	f := newFileFixture()
	stored := f.addFile(f.uploader.ID, file.StatusCompleted)
	shared := f.addFile(f.uploader.ID, file.StatusCompleted)
	f.files.visible[shared.ID] = true
	stranger := newUser("stranger@example.com", user.RoleUser)
	manager := newUser("manager@example.com", user.RoleManager)

	tests := []struct {
		name   string
		caller *user.User
		fileID uuid.UUID
		code   string
	}{
		{"uploader", f.uploader, stored.ID, ""},
		{"stranger", stranger, stored.ID, apperrors.CodeNotFound},
		{"through a visible post", stranger, shared.ID, ""},
		{"manager", manager, stored.ID, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := run(t, f.handler.Download, testCall{
				principal: principalFor(tt.caller),
				params:    map[string]string{paramID: tt.fileID.String()},
			})
			if tt.code != "" {
				requireCode(t, err, tt.code)
				return
			}
			require.NoError(t, err)
			var resp DownloadResponse
			decodeData(t, rec, &resp)
			assert.Contains(t, resp.URL, "X-Amz-Signature")
			assert.Equal(t, int64(900), resp.ExpiresIn)
		})
	}
}

func TestDownloadRequiresCompletedUpload(t *testing.T) {
	f := newFileFixture()
	stored := f.addFile(f.uploader.ID, file.StatusUploading)

	_, err := run(t, f.handler.Download, testCall{
		principal: principalFor(f.uploader),
		params:    map[string]string{paramID: stored.ID.String()},
	})
	requireCode(t, err, apperrors.CodeConflict)
}

func TestMineListsOwnFiles(t *testing.T) {
	f := newFileFixture()
	f.addFile(f.uploader.ID, file.StatusCompleted)
	f.addFile(uuid.New(), file.StatusCompleted)

	rec, err := run(t, f.handler.Mine, testCall{principal: principalFor(f.uploader)})
	require.NoError(t, err)
	var page Page[FileResponse]
	decodeData(t, rec, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "report.pdf", page.Items[0].Name)
	assert.Equal(t, 1, page.TotalElements)
}
