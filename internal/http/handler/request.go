package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "board-service/pkg/errors"
)

const (
	contentTypeJSON          = "application/json"
	maxStrictBodyBytes int64 = 1 << 20
)

func bindStrictJSON(c echo.Context, dst any) error {
	if !strings.HasPrefix(strings.ToLower(c.Request().Header.Get(echo.HeaderContentType)), contentTypeJSON) {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, msgContentTypeJSONRequired)
	}

	body := io.LimitReader(c.Request().Body, maxStrictBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return apperrors.BadRequest(msgInvalidRequestBody)
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return apperrors.BadRequest(msgInvalidRequestBody)
	}

	return nil
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest(msgInvalidID)
	}
	return id, nil
}

// Pagination holds the page size bounds applied to list endpoints. Pages are
// zero-based and page*size never exceeds maxOffset.
type Pagination struct {
	DefaultSize int
	MaxSize     int
}

func (p Pagination) parse(c echo.Context) (page, size int, err error) {
	page, size = 0, p.DefaultSize

	if raw := c.QueryParam(queryPage); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 0 {
			return 0, 0, apperrors.Validation(msgInvalidPage)
		}
	}

	if raw := c.QueryParam(querySize); raw != "" {
		size, err = strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return 0, 0, apperrors.Validation(msgInvalidSize)
		}
	}
	if size > p.MaxSize {
		size = p.MaxSize
	}
	if page > maxOffset/size {
		return 0, 0, apperrors.Validation(msgPageOutOfRange)
	}

	return page, size, nil
}
