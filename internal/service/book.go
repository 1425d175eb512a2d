package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pothpath/pothpath-server/internal/domain"
	domainerrors "github.com/pothpath/pothpath-server/internal/errors"
	"github.com/pothpath/pothpath-server/internal/storage"
	"github.com/pothpath/pothpath-server/internal/store"
	"github.com/pothpath/pothpath-server/internal/store/sqlite"
)

// BookService orchestrates the public catalog: browsing, detail views,
// and downloads.
type BookService struct {
	store   *sqlite.Store
	storage *storage.Storage
	admins  adminChecker
	logger  *slog.Logger
}

// adminChecker reports whether a user has moderation rights.
type adminChecker interface {
	IsAdmin(user *domain.User) bool
}

// NewBookService creates a new book service.
func NewBookService(store *sqlite.Store, storage *storage.Storage, admins adminChecker, logger *slog.Logger) *BookService {
	return &BookService{
		store:   store,
		storage: storage,
		admins:  admins,
		logger:  logger,
	}
}

// BrowseRequest contains the public catalog filters. Everything is
// optional; zero values mean "no filter".
type BrowseRequest struct {
	Search  string
	GenreID string
	Sort    string
	Limit   int
	Offset  int
}

// Browse returns a page of the public catalog. Only approved, public
// books are ever included regardless of who is asking.
func (s *BookService) Browse(ctx context.Context, req BrowseRequest) (*store.Page[*domain.Book], error) {
	if req.Sort != "" && !store.ValidSort(req.Sort) {
		return nil, domainerrors.Validationf("unknown sort %q", req.Sort)
	}

	q := store.BookQuery{
		Search:      req.Search,
		GenreID:     req.GenreID,
		VisibleOnly: true,
		Sort:        req.Sort,
		Limit:       req.Limit,
		Offset:      req.Offset,
	}

	page, err := s.store.ListBooks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return page, nil
}

// ListUserUploads returns a page of the books a user has uploaded, in
// every status. Only the uploader sees this listing.
func (s *BookService) ListUserUploads(ctx context.Context, userID string, limit, offset int) (*store.Page[*domain.Book], error) {
	q := store.BookQuery{
		UploadedBy: userID,
		Sort:       store.SortNewest,
		Limit:      limit,
		Offset:     offset,
	}

	page, err := s.store.ListBooks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return page, nil
}

// GetBook returns a book if the viewer is allowed to see it. Books that
// are not visible are only shown to their uploader and to moderators;
// everyone else gets a not-found rather than a hint that the book exists.
// The viewer may be nil for anonymous requests.
func (s *BookService) GetBook(ctx context.Context, viewer *domain.User, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if !s.canSee(viewer, book) {
		return nil, domainerrors.NotFound("book not found")
	}

	return book, nil
}

// RecordView counts a detail-page view for a visible book. Failures are
// logged, not surfaced: analytics must never break the page.
func (s *BookService) RecordView(ctx context.Context, viewer *domain.User, book *domain.Book) {
	if !book.Visible() {
		return
	}

	viewerID := ""
	if viewer != nil {
		viewerID = viewer.ID
	}

	if err := s.store.IncrementViewCount(ctx, book.ID, viewerID); err != nil {
		s.logger.Warn("Failed to record view", "book_id", book.ID, "error", err)
	}
}

// Download opens the book's file for streaming and counts the download.
// The same visibility rules as GetBook apply, except that an uploader or
// moderator downloading a hidden book does not bump the counter.
func (s *BookService) Download(ctx context.Context, viewer *domain.User, bookID string) (*domain.Book, io.ReadSeekCloser, int64, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, nil, 0, err
	}

	if !s.canSee(viewer, book) {
		return nil, nil, 0, domainerrors.NotFound("book not found")
	}

	reader, size, err := s.storage.Open(book.FilePath)
	if err != nil {
		s.logger.Error("Book row exists but file is missing",
			"book_id", book.ID,
			"key", book.FilePath,
			"error", err,
		)
		return nil, nil, 0, domainerrors.Internal("book file unavailable")
	}

	if book.Visible() {
		viewerID := ""
		if viewer != nil {
			viewerID = viewer.ID
		}
		if err := s.store.IncrementDownloadCount(ctx, book.ID, viewerID); err != nil {
			s.logger.Warn("Failed to record download", "book_id", book.ID, "error", err)
		}
	}

	return book, reader, size, nil
}

func (s *BookService) canSee(viewer *domain.User, book *domain.Book) bool {
	if book.Visible() {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.ID == book.UploadedBy || s.admins.IsAdmin(viewer)
}
