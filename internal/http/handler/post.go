package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"board-service/internal/audit"
	"board-service/internal/auth"
	"board-service/internal/domain/post"
	"board-service/internal/rbac"
	"board-service/internal/rbac/presets"
	apperrors "board-service/pkg/errors"
	"board-service/pkg/validator"
)

type PostHandler struct {
	posts   PostStore
	checker *rbac.Checker
	auditor AuditRecorder
	pages   Pagination
}

func NewPostHandler(posts PostStore, checker *rbac.Checker, auditor AuditRecorder, pages Pagination) *PostHandler {
	if auditor == nil {
		auditor = nopAuditor{}
	}
	return &PostHandler{posts: posts, checker: checker, auditor: auditor, pages: pages}
}

type CreatePostRequest struct {
	Title   string      `json:"title"`
	Content string      `json:"content"`
	Status  string      `json:"status"`
	FileIDs []uuid.UUID `json:"file_ids"`
}

type UpdatePostRequest struct {
	Title   *string      `json:"title"`
	Content *string      `json:"content"`
	Status  *string      `json:"status"`
	FileIDs *[]uuid.UUID `json:"file_ids"`
}

// PostDetail is the full representation of a single post.
type PostDetail struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	AuthorID    uuid.UUID   `json:"author_id"`
	AuthorEmail string      `json:"author_email"`
	AuthorName  string      `json:"author_name"`
	Status      post.Status `json:"status"`
	FileIDs     []uuid.UUID `json:"file_ids"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func toPostDetail(p *post.Post) PostDetail {
	fileIDs := p.FileIDs
	if fileIDs == nil {
		fileIDs = []uuid.UUID{}
	}
	return PostDetail{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		AuthorID:    p.AuthorID,
		AuthorEmail: p.AuthorEmail,
		AuthorName:  p.AuthorName,
		Status:      p.Status,
		FileIDs:     fileIDs,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ListPublished is public.
func (h *PostHandler) ListPublished(c echo.Context) error {
	filter, page, size, err := h.listFilter(c)
	if err != nil {
		return err
	}
	published := post.StatusPublished
	filter.Status = &published
	return h.list(c, filter, page, size)
}

// List returns posts matching the query. Without the post manage capability a
// caller sees other authors' published posts only.
func (h *PostHandler) List(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	filter, page, size, err := h.listFilter(c)
	if err != nil {
		return err
	}

	ownPosts := filter.AuthorEmail != "" && strings.EqualFold(filter.AuthorEmail, p.Email)
	if !ownPosts && !h.checker.IsAuthorized(p.Subject(), presets.ResourcePost, presets.ActionManage) {
		published := post.StatusPublished
		filter.Status = &published
	}
	return h.list(c, filter, page, size)
}

func (h *PostHandler) Mine(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	filter, page, size, err := h.listFilter(c)
	if err != nil {
		return err
	}
	filter.AuthorEmail = ""
	filter.AuthorID = &p.ID
	return h.list(c, filter, page, size)
}

func (h *PostHandler) listFilter(c echo.Context) (post.ListFilter, int, int, error) {
	page, size, err := h.pages.parse(c)
	if err != nil {
		return post.ListFilter{}, 0, 0, err
	}

	filter := post.ListFilter{
		AuthorEmail: validator.NormalizeEmail(c.QueryParam(queryAuthor)),
		Search:      strings.TrimSpace(c.QueryParam(querySearch)),
		Sort:        post.SortCreatedAt,
		Limit:       size,
		Offset:      page * size,
	}

	if raw := c.QueryParam(queryStatus); raw != "" {
		status := post.Status(strings.ToUpper(raw))
		if !status.Valid() {
			return post.ListFilter{}, 0, 0, apperrors.Validation(msgInvalidStatus)
		}
		filter.Status = &status
	}

	if raw := c.QueryParam(querySort); raw != "" {
		sort := post.SortField(raw)
		switch sort {
		case post.SortCreatedAt, post.SortTitle, post.SortAuthor:
			filter.Sort = sort
		default:
			return post.ListFilter{}, 0, 0, apperrors.Validation(msgInvalidSort)
		}
	}

	switch strings.ToLower(c.QueryParam(queryDirection)) {
	case "", "desc":
	case directionAsc:
		filter.Ascending = true
	default:
		return post.ListFilter{}, 0, 0, apperrors.Validation(msgInvalidDirection)
	}

	return filter, page, size, nil
}

func (h *PostHandler) list(c echo.Context, filter post.ListFilter, page, size int) error {
	posts, total, err := h.posts.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	summaries := make([]post.Summary, 0, len(posts))
	for _, p := range posts {
		summaries = append(summaries, p.Summary())
	}
	return respondData(c, http.StatusOK, "", newPage(summaries, page, size, total))
}

// Get hides unpublished posts from everyone but their author and managers.
func (h *PostHandler) Get(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, paramID)
	if err != nil {
		return err
	}

	found, err := h.posts.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !h.visible(p, found) {
		return apperrors.NotFound(msgPostNotFound)
	}

	return respondData(c, http.StatusOK, "", toPostDetail(found))
}

func (h *PostHandler) visible(p auth.Principal, found *post.Post) bool {
	return found.Status == post.StatusPublished || found.OwnedBy(p.ID) ||
		h.checker.IsAuthorized(p.Subject(), presets.ResourcePost, presets.ActionManage)
}

func (h *PostHandler) Create(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	var req CreatePostRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	title := strings.TrimSpace(req.Title)
	if err := validator.PostTitle(title); err != nil {
		return apperrors.Validation(err.Error())
	}
	if err := validator.PostContent(req.Content); err != nil {
		return apperrors.Validation(err.Error())
	}
	status := post.StatusDraft
	if req.Status != "" {
		status = post.Status(strings.ToUpper(req.Status))
		if !status.Valid() {
			return apperrors.Validation(msgInvalidStatus)
		}
	}

	created, err := h.posts.Create(c.Request().Context(), post.CreatePostInput{
		Title:    title,
		Content:  req.Content,
		AuthorID: p.ID,
		Status:   status,
		FileIDs:  req.FileIDs,
	})
	if err != nil {
		return err
	}

	h.record(c, p, created.ID, audit.ActionCreate)
	return respondData(c, http.StatusCreated, msgPostCreated, toPostDetail(created))
}

// Update is restricted to the author. Posts the caller cannot see are reported
// as missing.
func (h *PostHandler) Update(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, paramID)
	if err != nil {
		return err
	}

	var req UpdatePostRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	input := post.UpdatePostInput{Content: req.Content, FileIDs: req.FileIDs}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := validator.PostTitle(title); err != nil {
			return apperrors.Validation(err.Error())
		}
		input.Title = &title
	}
	if req.Content != nil {
		if err := validator.PostContent(*req.Content); err != nil {
			return apperrors.Validation(err.Error())
		}
	}
	if req.Status != nil {
		status := post.Status(strings.ToUpper(*req.Status))
		if !status.Valid() {
			return apperrors.Validation(msgInvalidStatus)
		}
		input.Status = &status
	}

	ctx := c.Request().Context()
	existing, err := h.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !h.visible(p, existing) {
		return apperrors.NotFound(msgPostNotFound)
	}
	if !existing.OwnedBy(p.ID) {
		return apperrors.Forbidden(msgNotPostAuthor)
	}

	updated, err := h.posts.Update(ctx, id, p.ID, input)
	if err != nil {
		return err
	}

	h.record(c, p, id, audit.ActionUpdate)
	return respondData(c, http.StatusOK, msgPostUpdated, toPostDetail(updated))
}

// Delete is allowed for the author and for roles holding the post delete
// capability.
func (h *PostHandler) Delete(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, paramID)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	existing, err := h.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !h.visible(p, existing) {
		return apperrors.NotFound(msgPostNotFound)
	}
	if !existing.OwnedBy(p.ID) && !h.checker.IsAuthorized(p.Subject(), presets.ResourcePost, presets.ActionDelete) {
		return apperrors.Forbidden(msgCannotDeletePost)
	}

	if err := h.posts.SoftDelete(ctx, id); err != nil {
		return err
	}

	h.record(c, p, id, audit.ActionDelete)
	return respondMessage(c, http.StatusOK, msgPostDeleted)
}

func (h *PostHandler) record(c echo.Context, p auth.Principal, postID uuid.UUID, action audit.Action) {
	h.auditor.Record(c.Request().Context(), &audit.Event{
		ActorID:      &p.ID,
		ResourceType: audit.ResourceTypePost,
		ResourceID:   &postID,
		Action:       action,
		Status:       audit.StatusSuccess,
	})
}
