package util

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}

type Meta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
	HasPrev    bool  `json:"hasPrev"`
	HasNext    bool  `json:"hasNext"`
}

func NewMeta(page, size int, total int64) Meta {
	from, limit := Calculate(page, size)
	if page < 1 {
		page = 1
	}
	return Meta{
		Page:       page,
		PageSize:   limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
		HasPrev:    page > 1,
		HasNext:    int64(from+limit) < total,
	}
}

// Page is the body of every paginated list response.
type Page[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}
