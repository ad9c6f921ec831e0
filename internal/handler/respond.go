package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/logger"
	"github.com/iliyamo/restaurant-reservation/internal/pagination"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// statusFor maps a service error kind onto an HTTP status.
func statusFor(k service.Kind) int {
	switch k {
	case service.KindValidation, service.KindUnprocessable:
		return http.StatusUnprocessableEntity
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err as {message, errors?}.  Causes of internal
// errors are logged, never sent.
func respondError(c echo.Context, err error) error {
	var se *service.Error
	if !errors.As(err, &se) {
		se = &service.Error{Kind: service.KindInternal, Message: "Internal server error", Err: err}
	}
	status := statusFor(se.Kind)

	l := logger.FromContext(c.Request().Context())
	if status >= http.StatusInternalServerError {
		l.Error().Err(se.Err).Str("path", c.Path()).Msg(se.Message)
	} else {
		l.Debug().Str("kind", se.Kind.String()).Str("path", c.Path()).Msg(se.Message)
	}

	body := echo.Map{"message": se.Message}
	if len(se.Fields) > 0 {
		body["errors"] = se.Fields
	}
	return c.JSON(status, body)
}

// bindBody decodes the JSON body into v.  Decoding failures are answered
// as validation errors naming the offending field where possible.
func bindBody(c echo.Context, v any) error {
	err := (&echo.DefaultBinder{}).BindBody(c, v)
	if err == nil {
		return nil
	}
	field, reason := "body", "Malformed JSON body"
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field, reason = typeErr.Field, "Invalid value type, expected "+typeErr.Type.String()
	}
	return &service.Error{
		Kind:    service.KindValidation,
		Message: "The given data was invalid.",
		Fields:  map[string][]string{field: {reason}},
		Err:     err,
	}
}

// pathID parses the :id route parameter.  Anything that is not a
// positive integer cannot address a record and is reported as notFound.
func pathID(c echo.Context, notFound string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &service.Error{Kind: service.KindNotFound, Message: notFound, Err: err}
	}
	return id, nil
}

// listQuery reads page, per_page, searchTerm, sort_by and sort_dir.
func listQuery(c echo.Context, p Paging) repository.ListQuery {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	search := c.QueryParam("searchTerm")
	if search == "" {
		search = c.QueryParam("search")
	}
	return repository.ListQuery{
		Search:  strings.TrimSpace(search),
		SortBy:  c.QueryParam("sort_by"),
		SortDir: c.QueryParam("sort_dir"),
		Page:    pagination.Normalize(page, perPage, p.DefaultPerPage, p.MaxPerPage),
	}
}

// listResponse is the collection envelope.
type listResponse[T any] struct {
	Data  []T              `json:"data"`
	Links pagination.Links `json:"links"`
	Meta  pagination.Meta  `json:"meta"`
}

func respondPage[T any](c echo.Context, page service.Page[T]) error {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	meta := pagination.NewMeta(page.Params, page.Total, len(items))
	return c.JSON(http.StatusOK, listResponse[T]{
		Data:  items,
		Links: pagination.NewLinks(requestURL(c), meta),
		Meta:  meta,
	})
}

// requestURL reconstructs the absolute URL of the current request.
func requestURL(c echo.Context) *url.URL {
	req := c.Request()
	u := *req.URL
	u.Scheme = c.Scheme()
	u.Host = req.Host
	return &u
}

// respondData writes v under the data key.
func respondData(c echo.Context, status int, v any) error {
	return c.JSON(status, echo.Map{"data": v})
}
