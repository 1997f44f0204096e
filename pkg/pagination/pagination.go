package pagination

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPage   = 1
	MaxPageSize   = 100
	pageParam     = "page"
	pageSizeParam = "pageSize"
)

var ErrInvalidParam = errors.New("invalid pagination parameter")

// Params holds pagination parameters extracted from a request. A zero
// PageSize means the caller asked for the whole result.
type Params struct {
	Page     int
	PageSize int
}

// Enabled reports whether a page size was requested.
func (p Params) Enabled() bool {
	return p.PageSize > 0
}

// FromContext extracts page and pageSize from the query string. Missing or
// non-positive values fall back to page 1 and no pagination; pageSize is
// capped at MaxPageSize.
func FromContext(c echo.Context) (Params, error) {
	page, err := intParam(c, pageParam)
	if err != nil {
		return Params{}, err
	}
	if page <= 0 {
		page = DefaultPage
	}

	size, err := intParam(c, pageSizeParam)
	if err != nil {
		return Params{}, err
	}
	if size < 0 {
		size = 0
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	return Params{Page: page, PageSize: size}, nil
}

func intParam(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParam, name, raw)
	}
	return v, nil
}
