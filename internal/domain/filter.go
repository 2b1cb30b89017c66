package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination is a 1-indexed page request.
type Pagination struct {
	Page  int
	Limit int
}

// Normalize fills defaults and clamps the limit.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset saturates at math.MaxInt so that huge page numbers land past the
// last row instead of wrapping negative.
func (p Pagination) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// DateRange bounds are inclusive; nil means unbounded.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

type AccountOrderBy string

const (
	OrderByCreatedAt     AccountOrderBy = "created_at"
	OrderByAccountNumber AccountOrderBy = "account_number"
	OrderByName          AccountOrderBy = "name"
)

func (o AccountOrderBy) IsValid() bool {
	switch o {
	case OrderByCreatedAt, OrderByAccountNumber, OrderByName:
		return true
	}
	return false
}

type AccountFilter struct {
	Pagination
	Type    AccountType
	Status  AccountStatus
	Search  string
	Created DateRange
	OrderBy AccountOrderBy
	Sort    SortOrder
}

type MovementFilter struct {
	Pagination
	AccountID *uuid.UUID
	Type      TransactionType
	Category  Category
	Search    string
	Created   DateRange
}

type PageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// NewPage builds a page; data is never nil so it serializes as [].
func NewPage[T any](data []T, p Pagination, total int) *Page[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	return &Page[T]{
		Data: data,
		Meta: PageMeta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}
