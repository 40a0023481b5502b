package models

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// SortBy selects which end of the timeline a listing starts from.
type SortBy string

const (
	SortNew SortBy = "NEW"
	SortOld SortBy = "OLD"
)

// OrderBy is the createdAt direction applied to listings.
type OrderBy string

const (
	OrderAsc  OrderBy = "ASC"
	OrderDesc OrderBy = "DESC"
)

// Pagination is a validated page request.
type Pagination struct {
	Page    int
	Limit   int
	SortBy  SortBy
	OrderBy OrderBy
}

// Offset is the number of rows skipped before the page starts.
// It saturates at math.MaxInt instead of wrapping.
func (p Pagination) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// DefaultPagination returns page 1 of 10, newest sort, ascending order.
func DefaultPagination() Pagination {
	return Pagination{Page: DefaultPage, Limit: DefaultLimit, SortBy: SortNew, OrderBy: OrderAsc}
}

// NewPagination validates raw values. Zero values and empty strings fall back to defaults.
func NewPagination(page, limit int, sortBy, orderBy string) (Pagination, error) {
	p := DefaultPagination()

	if page != 0 {
		if page < 1 {
			return p, fmt.Errorf("page must be at least 1")
		}
		p.Page = page
	}
	if limit != 0 {
		if limit < 1 {
			return p, fmt.Errorf("limit must be at least 1")
		}
		if limit > MaxLimit {
			limit = MaxLimit
		}
		p.Limit = limit
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return p, fmt.Errorf("page is too large")
	}
	if s := strings.ToUpper(strings.TrimSpace(sortBy)); s != "" {
		switch SortBy(s) {
		case SortNew, SortOld:
			p.SortBy = SortBy(s)
		default:
			return p, fmt.Errorf("sortBy must be one of OLD, NEW")
		}
	}
	if o := strings.ToUpper(strings.TrimSpace(orderBy)); o != "" {
		switch OrderBy(o) {
		case OrderAsc, OrderDesc:
			p.OrderBy = OrderBy(o)
		default:
			return p, fmt.Errorf("orderBy must be one of ASC, DESC")
		}
	}
	return p, nil
}

// PaginationMeta is returned alongside every paginated listing.
type PaginationMeta struct {
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	TotalItems      int  `json:"totalItems"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// NewPaginationMeta derives page counts from the filtered total.
func NewPaginationMeta(page, limit, total int) PaginationMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PaginationMeta{
		Page:            page,
		Limit:           limit,
		TotalItems:      total,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

// Page is one slice of a listing plus its metadata.
type Page[T any] struct {
	Data []T           `json:"data"`
	Meta PaginationMeta `json:"meta"`
}
