package params

import (
	"net/url"
	"strconv"
	"strings"
)

// /products?page=3 with 45 matching rows and size 20
// → ParsePage() = 3 → Resolve(3, 20, 45) → Page 3, Offset 40, TotalPages 3
// /products?page=999 with the same rows → Page 3 (clamped)

// Pagination holds the requested window and the metadata computed from the
// matching row count.
type Pagination struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	Page       int  `json:"page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ParsePage reads ?page=. Missing or malformed values yield 1; out of range
// values are left for Resolve to clamp.
func ParsePage(q url.Values) int {
	pageStr := strings.TrimSpace(q.Get("page"))
	if pageStr == "" {
		return 1
	}
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		return 1
	}
	return page
}

// ParsePagination parses ?limit=...&page=... for admin lists, where the
// caller picks a page size up to max.
func ParsePagination(q url.Values, def, max int) Pagination {
	limit := def
	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			switch {
			case l <= 0:
				limit = def
			case l > max:
				limit = max
			default:
				limit = l
			}
		}
	}
	page := ParsePage(q)
	if page < 1 {
		page = 1
	}
	return Pagination{Limit: limit, Page: page, Offset: (page - 1) * limit}
}

// Resolve clamps requested into [1, totalPages] for total rows of the given
// page size. TotalPages is never below 1, so an empty result is page 1 of 1.
func Resolve(requested, size, total int) Pagination {
	if size <= 0 {
		size = 1
	}
	p := Pagination{Limit: size, Page: requested}
	p.ComputeMeta(total)
	return p
}

// ComputeMeta fills the totals, clamps Page and recomputes Offset.
func (p *Pagination) ComputeMeta(total int) {
	if total < 0 {
		total = 0
	}
	p.Total = total

	p.TotalPages = 1
	if p.Limit > 0 && total > 0 {
		p.TotalPages = (total + p.Limit - 1) / p.Limit
	}

	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > p.TotalPages {
		p.Page = p.TotalPages
	}

	p.Offset = (p.Page - 1) * p.Limit
	p.HasPrev = p.Page > 1
	p.HasNext = p.Page < p.TotalPages
}
