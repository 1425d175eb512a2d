// Package library implements the stateful browse session that backs a
// catalog view: one filter set, an accumulated result list, and
// load-more pagination over the book service.
package library

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pothpath/pothpath-server/internal/domain"
	"github.com/pothpath/pothpath-server/internal/service"
	"github.com/pothpath/pothpath-server/internal/store"
)

// Fetcher supplies catalog pages. *service.BookService satisfies it.
type Fetcher interface {
	Browse(ctx context.Context, req service.BrowseRequest) (*store.Page[*domain.Book], error)
}

// Filters is the complete filter state of a browse session. Comparing
// two values tells whether the accumulated results are still valid.
type Filters struct {
	Search  string
	GenreID string
	Sort    string
}

// Session accumulates catalog pages for one client view. Changing any
// filter resets the accumulation and bumps the generation counter;
// fetches that complete under an older generation are discarded, so a
// slow first page can never clobber the results of a newer filter.
//
// Fetch failures are logged and read as an empty, exhausted catalog;
// the caller never sees the difference between an outage and an empty
// shelf.
//
// Safe for concurrent use.
type Session struct {
	fetcher  Fetcher
	pageSize int
	logger   *slog.Logger

	mu         sync.Mutex
	filters    Filters
	generation uint64
	books      []*domain.Book
	total      int
	hasMore    bool
}

// NewSession creates a browse session. A pageSize of zero or less falls
// back to the store default.
func NewSession(fetcher Fetcher, pageSize int, logger *slog.Logger) *Session {
	if pageSize <= 0 {
		pageSize = store.DefaultPageSize
	}
	return &Session{
		fetcher:  fetcher,
		pageSize: pageSize,
		logger:   logger,
		hasMore:  true,
	}
}

// SetFilters replaces the filter state. If anything changed, the
// accumulated results are dropped and the next load starts from the top.
func (s *Session) SetFilters(f Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f == s.filters {
		return
	}

	s.filters = f
	s.generation++
	s.books = nil
	s.total = 0
	s.hasMore = true
}

// Filters returns the current filter state.
func (s *Session) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Refresh reloads the first page under the current filters, replacing
// the accumulation. A failed fetch empties the session and marks it
// exhausted.
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	req := s.browseRequest(0)
	s.mu.Unlock()

	page, err := s.fetcher.Browse(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return // A filter change overtook this fetch
	}
	if err != nil {
		s.logger.Error("Catalog refresh failed", "error", err)
		s.books = nil
		s.total = 0
		s.hasMore = false
		return
	}
	s.books = page.Items
	s.total = page.Total
	s.hasMore = page.HasMore
}

// LoadMore appends the next page. It is a no-op when the session is
// already exhausted, and a failed fetch marks it exhausted while
// keeping the pages already loaded.
func (s *Session) LoadMore(ctx context.Context) {
	s.mu.Lock()
	if !s.hasMore {
		s.mu.Unlock()
		return
	}
	gen := s.generation
	req := s.browseRequest(len(s.books))
	s.mu.Unlock()

	page, err := s.fetcher.Browse(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	if err != nil {
		s.logger.Error("Catalog page load failed", "error", err)
		s.hasMore = false
		return
	}
	// An overlapping load for the same offset applies only once: the
	// accumulation must still end where this fetch started.
	if len(s.books) != req.Offset {
		return
	}
	s.books = append(s.books, page.Items...)
	s.total = page.Total
	s.hasMore = page.HasMore
}

// Books returns a copy of the accumulated results.
func (s *Session) Books() []*domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Book, len(s.books))
	copy(out, s.books)
	return out
}

// Total returns the total matching rows as of the last applied fetch.
func (s *Session) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// HasMore reports whether another LoadMore would fetch anything.
func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// browseRequest builds the fetch request for the given offset. Caller
// holds the lock.
func (s *Session) browseRequest(offset int) service.BrowseRequest {
	return service.BrowseRequest{
		Search:  s.filters.Search,
		GenreID: s.filters.GenreID,
		Sort:    s.filters.Sort,
		Limit:   s.pageSize,
		Offset:  offset,
	}
}
