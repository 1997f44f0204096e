package reporting

// Pagination describes the slice of the series returned to the caller. Page is
// the corrected page after clamping.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Paginate clamps page into [1, totalPages] and returns the matching slice.
// A non-positive pageSize disables pagination.
func Paginate[T any](items []T, page, pageSize int) ([]T, *Pagination) {
	if pageSize <= 0 {
		return items, nil
	}
	total := len(items)
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := total
	if total-start > pageSize {
		end = start + pageSize
	}

	return items[start:end], &Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
