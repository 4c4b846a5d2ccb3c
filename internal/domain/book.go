package domain

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PageSize is the fixed number of books on one catalog page.
const PageSize = 5

type Book struct {
	ISBN    string          `json:"isbn"`
	Title   string          `json:"title"`
	Author  string          `json:"author"`
	Subject string          `json:"subject"`
	Price   decimal.Decimal `json:"price"`
}

// Filter holds the optional catalog search constraints. An empty field
// imposes no constraint.
type Filter struct {
	Subject string `json:"subject,omitempty"`
	Author  string `json:"author,omitempty"`
	Title   string `json:"title,omitempty"`
}

// Normalize trims every field so that whitespace-only input counts as absent.
func (f Filter) Normalize() Filter {
	return Filter{
		Subject: strings.TrimSpace(f.Subject),
		Author:  strings.TrimSpace(f.Author),
		Title:   strings.TrimSpace(f.Title),
	}
}

// PageRequest is a 1-based pagination window of PageSize rows.
type PageRequest struct {
	Page int `json:"page"`
}

// ParsePage turns a raw query value into a PageRequest. Missing, malformed
// and non-positive values all mean page 1.
func ParsePage(raw string) PageRequest {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		n = 1
	}
	return PageRequest{Page: n}
}

func (p PageRequest) Number() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

func (p PageRequest) Limit() int {
	return PageSize
}

func (p PageRequest) Offset() int {
	return (p.Number() - 1) * PageSize
}

// TotalPages is ceil(total / PageSize).
func TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}

// DisplayPages is TotalPages with an empty result shown as page 1 of 1.
func DisplayPages(total int) int {
	return max(1, TotalPages(total))
}

// CatalogPage is one page of search results plus what a view needs to
// render the search form and the pager.
type CatalogPage struct {
	Books        []Book   `json:"books"`
	Subjects     []string `json:"subjects"`
	Filter       Filter   `json:"filter"`
	Page         int      `json:"current_page"`
	PageSize     int      `json:"books_per_page"`
	TotalMatches int      `json:"total_matches"`
	TotalPages   int      `json:"total_pages"`
}
