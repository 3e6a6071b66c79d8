package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"board-service/internal/audit"
	"board-service/internal/auth"
	"board-service/internal/domain/file"
	"board-service/internal/domain/post"
	"board-service/internal/domain/user"
	"board-service/internal/rbac"
	"board-service/internal/rbac/presets"
	apperrors "board-service/pkg/errors"
)

var (
	testPages   = Pagination{DefaultSize: 20, MaxSize: 100}
	testChecker = rbac.MustNew(presets.Board())
	testNow     = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

type testCall struct {
	method    string
	target    string
	body      string
	raw       bool
	principal *auth.Principal
	params    map[string]string
}

func (tc testCall) context() (echo.Context, *httptest.ResponseRecorder) {
	method := tc.method
	if method == "" {
		method = http.MethodGet
	}
	target := tc.target
	if target == "" {
		target = "/"
	}

	var body io.Reader
	if tc.body != "" {
		body = strings.NewReader(tc.body)
	}
	req := httptest.NewRequest(method, target, body)
	if tc.body != "" {
		if tc.raw {
			req.Header.Set(echo.HeaderContentType, echo.MIMEOctetStream)
		} else {
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		}
	}
	if tc.principal != nil {
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), *tc.principal))
	}

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if len(tc.params) > 0 {
		names := make([]string, 0, len(tc.params))
		values := make([]string, 0, len(tc.params))
		for name, value := range tc.params {
			names = append(names, name)
			values = append(values, value)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

func run(t *testing.T, h echo.HandlerFunc, tc testCall) (*httptest.ResponseRecorder, error) {
	t.Helper()
	c, rec := tc.context()
	return rec, h(c)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
}

// decodeData unmarshals the envelope's data member into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func principalFor(u *user.User) *auth.Principal {
	return auth.NewPrincipal(u)
}

func newUser(email string, role user.Role) *user.User {
	return &user.User{
		ID:        uuid.New(),
		Email:     email,
		Name:      "Test User",
		Role:      role,
		CreatedAt: testNow,
	}
}

type memUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User

	lastFilter user.ListFilter
}

func newMemUserStore(users ...*user.User) *memUserStore {
	s := &memUserStore{users: map[uuid.UUID]*user.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memUserStore) FindActiveByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.IsDeleted() {
		return nil, apperrors.NotFound(msgUserNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) FindActiveByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email && !u.IsDeleted() {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound(msgUserNotFound)
}

func (s *memUserStore) List(_ context.Context, filter user.ListFilter) ([]*user.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = filter
	var out []*user.User
	for _, u := range s.users {
		if u.IsDeleted() || (filter.Role != nil && u.Role != *filter.Role) {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (s *memUserStore) UpdateName(_ context.Context, id uuid.UUID, name string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound(msgUserNotFound)
	}
	u.Name = name
	cp := *u
	return &cp, nil
}

func (s *memUserStore) UpdateRole(_ context.Context, id uuid.UUID, role user.Role) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound(msgUserNotFound)
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func (s *memUserStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.IsDeleted() {
		return apperrors.NotFound(msgUserNotFound)
	}
	at := testNow
	u.DeletedAt = &at
	return nil
}

func (s *memUserStore) Create(_ context.Context, in user.CreateUserInput) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == in.Email && !u.IsDeleted() {
			return nil, apperrors.Conflict("email already registered")
		}
	}
	u := &user.User{
		ID:           uuid.New(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		CreatedAt:    testNow,
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *memUserStore) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (s *memUserStore) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

type memPostStore struct {
	mu    sync.Mutex
	posts map[uuid.UUID]*post.Post

	lastFilter post.ListFilter
	createErr  error
}

func newMemPostStore(posts ...*post.Post) *memPostStore {
	s := &memPostStore{posts: map[uuid.UUID]*post.Post{}}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s
}

func (s *memPostStore) Create(_ context.Context, in post.CreatePostInput) (*post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	p := &post.Post{
		ID:        uuid.New(),
		Title:     in.Title,
		Content:   in.Content,
		AuthorID:  in.AuthorID,
		Status:    in.Status,
		FileIDs:   in.FileIDs,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	s.posts[p.ID] = p
	return p, nil
}

func (s *memPostStore) FindByID(_ context.Context, id uuid.UUID) (*post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.DeletedAt != nil {
		return nil, apperrors.NotFound(msgPostNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *memPostStore) List(_ context.Context, filter post.ListFilter) ([]*post.Post, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = filter
	var out []*post.Post
	for _, p := range s.posts {
		if p.DeletedAt != nil {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (s *memPostStore) Update(_ context.Context, id, _ uuid.UUID, in post.UpdatePostInput) (*post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, apperrors.NotFound(msgPostNotFound)
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Content != nil {
		p.Content = *in.Content
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.FileIDs != nil {
		p.FileIDs = *in.FileIDs
	}
	cp := *p
	return &cp, nil
}

func (s *memPostStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return apperrors.NotFound(msgPostNotFound)
	}
	at := testNow
	p.DeletedAt = &at
	return nil
}

type memFileStore struct {
	mu      sync.Mutex
	files   map[uuid.UUID]*file.File
	visible map[uuid.UUID]bool

	createErr error
}

func newMemFileStore(files ...*file.File) *memFileStore {
	s := &memFileStore{files: map[uuid.UUID]*file.File{}, visible: map[uuid.UUID]bool{}}
	for _, f := range files {
		s.files[f.ID] = f
	}
	return s
}

func (s *memFileStore) Create(_ context.Context, in file.CreateFileInput) (*file.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	f := &file.File{
		ID:           uuid.New(),
		OriginalName: in.OriginalName,
		StoredName:   in.StoredName,
		S3Key:        in.S3Key,
		S3Bucket:     in.S3Bucket,
		UploadID:     in.UploadID,
		SizeBytes:    in.SizeBytes,
		ContentType:  in.ContentType,
		Status:       file.StatusUploading,
		UploaderID:   in.UploaderID,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	s.files[f.ID] = f
	return f, nil
}

func (s *memFileStore) FindByID(_ context.Context, id uuid.UUID) (*file.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return nil, apperrors.NotFound(msgFileNotFound)
	}
	cp := *f
	return &cp, nil
}

func (s *memFileStore) ListByUploader(_ context.Context, uploaderID uuid.UUID, _, _ int) ([]*file.File, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*file.File
	for _, f := range s.files {
		if f.UploaderID == uploaderID {
			out = append(out, f)
		}
	}
	return out, len(out), nil
}

func (s *memFileStore) Transition(_ context.Context, id uuid.UUID, from, to file.UploadStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok || f.Status != from {
		return apperrors.Conflict(msgUploadNotInFlight)
	}
	f.Status = to
	return nil
}

func (s *memFileStore) VisibleThroughPost(_ context.Context, fileID, _ uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible[fileID], nil
}

func (s *memFileStore) status(id uuid.UUID) file.UploadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[id].Status
}

type fakeStorage struct {
	mu sync.Mutex

	created   []string
	aborted   []string
	parts     map[int64]int64
	completed [][]file.Part

	createErr   error
	completeErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{parts: map[int64]int64{}}
}

func (s *fakeStorage) Bucket() string { return "board-test" }

func (s *fakeStorage) CreateMultipartUpload(_ context.Context, key, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	s.created = append(s.created, key)
	return "upload-" + key, nil
}

func (s *fakeStorage) UploadPart(_ context.Context, _, _ string, partNumber int64, body io.ReadSeeker, size int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := io.Copy(io.Discard, body)
	if err != nil {
		return "", err
	}
	if n != size {
		return "", errors.New("size mismatch")
	}
	s.parts[partNumber] = size
	return `"etag-` + uuid.NewString() + `"`, nil
}

func (s *fakeStorage) CompleteMultipartUpload(_ context.Context, _, _ string, parts []file.Part) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completeErr != nil {
		return s.completeErr
	}
	s.completed = append(s.completed, parts)
	return nil
}

func (s *fakeStorage) AbortMultipartUpload(_ context.Context, key, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted = append(s.aborted, key)
	return nil
}

func (s *fakeStorage) PresignedDownloadURL(_ context.Context, key, _ string) (string, error) {
	return "https://board-test.s3.example.com/" + key + "?X-Amz-Signature=abc", nil
}

type captureAuditor struct {
	mu     sync.Mutex
	events []*audit.Event
}

func (a *captureAuditor) Record(_ context.Context, e *audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *captureAuditor) actions() []audit.Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]audit.Action, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Action)
	}
	return out
}

type countingUploads struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingUploads) UploadEvent(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[event]++
}

func (r *countingUploads) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[event]
}
