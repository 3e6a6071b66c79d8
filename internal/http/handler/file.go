package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"board-service/internal/audit"
	"board-service/internal/auth"
	"board-service/internal/domain/file"
	"board-service/internal/rbac"
	"board-service/internal/rbac/presets"
	"board-service/internal/storage/s3"
	apperrors "board-service/pkg/errors"
	"board-service/pkg/validator"
)

const maxUploadParts = 10000

// UploadLimits bounds chunked uploads.
type UploadLimits struct {
	ChunkSize   int64
	MaxFileSize int64
	URLExpiry   time.Duration
}

type FileHandler struct {
	files    FileStore
	storage  ObjectStorage
	checker  *rbac.Checker
	limits   UploadLimits
	pages    Pagination
	recorder UploadEventRecorder
	auditor  AuditRecorder
	logger   *slog.Logger
}

func NewFileHandler(
	files FileStore,
	storage ObjectStorage,
	checker *rbac.Checker,
	limits UploadLimits,
	pages Pagination,
	recorder UploadEventRecorder,
	auditor AuditRecorder,
	logger *slog.Logger,
) *FileHandler {
	if recorder == nil {
		recorder = nopUploadRecorder{}
	}
	if auditor == nil {
		auditor = nopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileHandler{
		files:    files,
		storage:  storage,
		checker:  checker,
		limits:   limits,
		pages:    pages,
		recorder: recorder,
		auditor:  auditor,
		logger:   logger,
	}
}

type InitiateUploadRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type InitiateUploadResponse struct {
	FileID     uuid.UUID `json:"file_id"`
	UploadID   string    `json:"upload_id"`
	ChunkSize  int64     `json:"chunk_size"`
	TotalParts int64     `json:"total_parts"`
}

type UploadPartResponse struct {
	PartNumber int64  `json:"part_number"`
	ETag       string `json:"etag"`
}

type CompleteUploadRequest struct {
	Parts []file.Part `json:"parts"`
}

type DownloadResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}

type FileResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	SizeBytes   int64             `json:"size_bytes"`
	ContentType string            `json:"content_type"`
	Status      file.UploadStatus `json:"status"`
	UploaderID  uuid.UUID         `json:"uploader_id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func toFileResponse(f *file.File) FileResponse {
	return FileResponse{
		ID:          f.ID,
		Name:        f.OriginalName,
		SizeBytes:   f.SizeBytes,
		ContentType: f.ContentType,
		Status:      f.Status,
		UploaderID:  f.UploaderID,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func (h *FileHandler) InitiateUpload(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	var req InitiateUploadRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}
	req.FileName = strings.TrimSpace(req.FileName)
	req.ContentType = strings.TrimSpace(req.ContentType)

	if err := validator.FileName(req.FileName); err != nil {
		return apperrors.Validation(err.Error())
	}
	if err := validator.ContentType(req.ContentType); err != nil {
		return apperrors.Validation(err.Error())
	}
	if err := validator.FileSize(req.SizeBytes); err != nil {
		return apperrors.Validation(err.Error())
	}
	if req.SizeBytes > h.limits.MaxFileSize {
		return apperrors.Validation(fmt.Sprintf(msgFileTooLargeFmt, h.limits.MaxFileSize))
	}
	totalParts := (req.SizeBytes + h.limits.ChunkSize - 1) / h.limits.ChunkSize
	if totalParts > maxUploadParts {
		return apperrors.Validation(msgTooManyParts)
	}
	if req.ContentType == "" {
		req.ContentType = echo.MIMEOctetStream
	}

	ctx := c.Request().Context()
	storedName := s3.StoredName(req.FileName)
	key := s3.BuildObjectKey(p.ID, storedName)

	uploadID, err := h.storage.CreateMultipartUpload(ctx, key, req.ContentType)
	if err != nil {
		h.recorder.UploadEvent(uploadEventFailed)
		return apperrors.InternalServer(msgStartUploadFailed, err)
	}

	created, err := h.files.Create(ctx, file.CreateFileInput{
		OriginalName: req.FileName,
		StoredName:   storedName,
		S3Key:        key,
		S3Bucket:     h.storage.Bucket(),
		UploadID:     uploadID,
		SizeBytes:    req.SizeBytes,
		ContentType:  req.ContentType,
		UploaderID:   p.ID,
	})
	if err != nil {
		h.abortQuietly(ctx, key, uploadID)
		h.recorder.UploadEvent(uploadEventFailed)
		return err
	}

	h.recorder.UploadEvent(uploadEventStarted)
	h.record(c, p, created.ID, audit.ActionCreate)
	return respondData(c, http.StatusCreated, msgUploadStarted, InitiateUploadResponse{
		FileID:     created.ID,
		UploadID:   uploadID,
		ChunkSize:  h.limits.ChunkSize,
		TotalParts: totalParts,
	})
}

// UploadPart streams one raw chunk to storage. Parts may be retried; the last
// successful upload of a part number wins.
func (h *FileHandler) UploadPart(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, paramID)
	if err != nil {
		return err
	}
	partNumber, err := strconv.Atoi(c.Param(paramPart))
	if err != nil {
		return apperrors.BadRequest(msgInvalidPartNumber)
	}
	if err := validator.PartNumber(partNumber); err != nil {
		return apperrors.Validation(err.Error())
	}

	ctx := c.Request().Context()
	f, err := h.ownUpload(ctx, id, p.ID)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(io.LimitReader(c.Request().Body, h.limits.ChunkSize+1))
	if err != nil {
		return apperrors.FileUpload(msgUploadPartFailed, err)
	}
	if len(data) == 0 {
		return apperrors.FileUpload(msgEmptyPart, nil)
	}
	if int64(len(data)) > h.limits.ChunkSize {
		return apperrors.FileUpload(fmt.Sprintf(msgPartTooLargeFmt, h.limits.ChunkSize), nil)
	}

	etag, err := h.storage.UploadPart(ctx, f.S3Key, f.UploadID, int64(partNumber), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return apperrors.InternalServer(msgUploadPartFailed, err)
	}

	h.recorder.UploadEvent(uploadEventPart)
	return respondData(c, http.StatusOK, msgPartUploaded, UploadPartResponse{
		PartNumber: int64(partNumber),
		ETag:       etag,
	})
}

func (h *FileHandler) Complete(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, paramID)
	if err != nil {
		return err
	}

	var req CompleteUploadRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}
	if err := validateParts(req.Parts); err != nil {
		return err
	}

	ctx := c.Request().Context()
	f, err := h.ownUpload(ctx, id, p.ID)
	if err != nil {
		return err
	}

	if err := h.storage.CompleteMultipartUpload(ctx, f.S3Key, f.UploadID, req.Parts); err != nil {
		h.recorder.UploadEvent(uploadEventFailed)
		return apperrors.InternalServer(msgCompleteFailed, err)
	}
	if err := h.files.Transition(ctx, f.ID, file.StatusUploading, file.StatusCompleted); err != nil {
		return err
	}
	f.Status = file.StatusCompleted

	h.recorder.UploadEvent(uploadEventCompleted)
	h.record(c, p, f.ID, audit.ActionUpdate)
	return respondData(c, http.StatusOK, msgUploadCompleted, toFileResponse(f))
}

func validateParts(parts []file.Part) error {
	if len(parts) == 0 {
		return apperrors.Validation(msgPartsRequired)
	}
	seen := make(map[int64]struct{}, len(parts))
	for _, part := range parts {
		if err := validator.PartNumber(int(part.Number)); err != nil {
			return apperrors.Validation(err.Error())
		}
		if strings.TrimSpace(part.ETag) == "" {
			return apperrors.Validation(msgETagRequired)
		}
		if _, dup := seen[part.Number]; dup {
			return apperrors.Validation(msgDuplicatePart)
		}
		seen[part.Number] = struct{}{}
	}
	return nil
}

func (h *FileHandler) Abort(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, paramID)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	f, err := h.ownUpload(ctx, id, p.ID)
	if err != nil {
		return err
	}

	if err := h.storage.AbortMultipartUpload(ctx, f.S3Key, f.UploadID); err != nil {
		return apperrors.InternalServer("", err)
	}
	if err := h.files.Transition(ctx, f.ID, file.StatusUploading, file.StatusFailed); err != nil {
		return err
	}

	h.recorder.UploadEvent(uploadEventAborted)
	h.record(c, p, f.ID, audit.ActionDelete)
	return respondMessage(c, http.StatusOK, msgUploadAborted)
}

// Download hands out a presigned GET URL. Files the caller may not see are
// reported as missing.
func (h *FileHandler) Download(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, paramID)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	f, err := h.files.FindByID(ctx, id)
	if err != nil {
		return err
	}

	visible, err := h.canView(ctx, p, f)
	if err != nil {
		return err
	}
	if !visible {
		return apperrors.NotFound(msgFileNotFound)
	}
	if !f.IsCompleted() {
		return apperrors.Conflict(msgFileNotReady)
	}

	url, err := h.storage.PresignedDownloadURL(ctx, f.S3Key, f.OriginalName)
	if err != nil {
		return apperrors.InternalServer(msgDownloadURLFailed, err)
	}

	return respondData(c, http.StatusOK, "", DownloadResponse{
		URL:       url,
		ExpiresIn: int64(h.limits.URLExpiry / time.Second),
	})
}

func (h *FileHandler) Mine(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	page, size, err := h.pages.parse(c)
	if err != nil {
		return err
	}

	files, total, err := h.files.ListByUploader(c.Request().Context(), p.ID, size, page*size)
	if err != nil {
		return err
	}

	items := make([]FileResponse, 0, len(files))
	for _, f := range files {
		items = append(items, toFileResponse(f))
	}
	return respondData(c, http.StatusOK, "", newPage(items, page, size, total))
}

// ownUpload loads an in-flight upload driven by uploaderID. Uploads owned by
// someone else are reported as missing.
func (h *FileHandler) ownUpload(ctx context.Context, id, uploaderID uuid.UUID) (*file.File, error) {
	f, err := h.files.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.UploaderID != uploaderID {
		return nil, apperrors.NotFound(msgFileNotFound)
	}
	if f.Status != file.StatusUploading {
		return nil, apperrors.Conflict(msgUploadNotInFlight)
	}
	return f, nil
}

func (h *FileHandler) canView(ctx context.Context, p auth.Principal, f *file.File) (bool, error) {
	if f.UploaderID == p.ID {
		return true, nil
	}
	if h.checker.IsAuthorized(p.Subject(), presets.ResourceFile, presets.ActionRead) {
		return true, nil
	}
	return h.files.VisibleThroughPost(ctx, f.ID, p.ID)
}

func (h *FileHandler) abortQuietly(ctx context.Context, key, uploadID string) {
	if err := h.storage.AbortMultipartUpload(context.WithoutCancel(ctx), key, uploadID); err != nil {
		h.logger.Warn("failed to abort orphaned multipart upload",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func (h *FileHandler) record(c echo.Context, p auth.Principal, fileID uuid.UUID, action audit.Action) {
	h.auditor.Record(c.Request().Context(), &audit.Event{
		ActorID:      &p.ID,
		ResourceType: audit.ResourceTypeFile,
		ResourceID:   &fileID,
		Action:       action,
		Status:       audit.StatusSuccess,
	})
}
