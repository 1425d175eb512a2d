// Package store defines storage-layer types shared by all backends.
package store

import "github.com/pothpath/pothpath-server/internal/domain"

// Sort keys accepted by book listing queries.
const (
	SortNewest  = "newest"  // created_at descending (default)
	SortOldest  = "oldest"  // created_at ascending
	SortTitleAZ = "az"      // title ascending, case-insensitive
	SortPopular = "popular" // download_count descending
)

// ValidSort reports whether s is a known sort key.
func ValidSort(s string) bool {
	switch s {
	case SortNewest, SortOldest, SortTitleAZ, SortPopular:
		return true
	}
	return false
}

// Pagination defaults. Twelve items fills the browse grid evenly at
// every breakpoint the client renders.
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// BookQuery describes a filtered, sorted, paginated book listing.
// Zero values mean "no filter" for each dimension.
type BookQuery struct {
	Search      string            // Substring match over title, author, description
	GenreID     string            // Restrict to one genre
	Status      domain.BookStatus // Restrict to one moderation status
	UploadedBy  string            // Restrict to one uploader
	VisibleOnly bool              // Only approved, public books
	Sort        string            // One of the Sort* keys, defaults to SortNewest
	Limit       int               // Page size, defaults to DefaultPageSize
	Offset      int               // Rows to skip
}

// Normalize clamps pagination and fills defaults.
func (q *BookQuery) Normalize() {
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if !ValidSort(q.Sort) {
		q.Sort = SortNewest
	}
}

// Page contains one page of results and listing metadata.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}
