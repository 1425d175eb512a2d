package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pothpath/pothpath-server/internal/domain"
	domainerrors "github.com/pothpath/pothpath-server/internal/errors"
	"github.com/pothpath/pothpath-server/internal/storage"
	"github.com/pothpath/pothpath-server/internal/store"
	"github.com/pothpath/pothpath-server/internal/store/sqlite"
	"github.com/pothpath/pothpath-server/internal/validation"
)

// ModerationService handles the review queue and status transitions.
// All callers are assumed to be moderators; the HTTP layer enforces that.
type ModerationService struct {
	store     *sqlite.Store
	storage   *storage.Storage
	validator *validation.Validator
	logger    *slog.Logger
}

// NewModerationService creates a new moderation service.
func NewModerationService(
	store *sqlite.Store,
	storage *storage.Storage,
	validator *validation.Validator,
	logger *slog.Logger,
) *ModerationService {
	return &ModerationService{
		store:     store,
		storage:   storage,
		validator: validator,
		logger:    logger,
	}
}

// ListByStatus returns a page of books in the given status, oldest
// first so the queue is worked in submission order. An empty status
// lists every book regardless of status.
func (s *ModerationService) ListByStatus(ctx context.Context, status domain.BookStatus, limit, offset int) (*store.Page[*domain.Book], error) {
	if status != "" && !domain.ValidBookStatus(status) {
		return nil, domainerrors.Validationf("unknown status %q", status)
	}

	q := store.BookQuery{
		Status: status,
		Sort:   store.SortOldest,
		Limit:  limit,
		Offset: offset,
	}

	page, err := s.store.ListBooks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return page, nil
}

// Transition moves a single book to the target status. Illegal moves
// return a conflict; a lost optimistic-concurrency race surfaces the
// same way so the moderator re-reads and retries.
func (s *ModerationService) Transition(ctx context.Context, bookID string, target domain.BookStatus) (*domain.Book, error) {
	if !domain.ValidBookStatus(target) {
		return nil, domainerrors.Validationf("unknown status %q", target)
	}

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	from := book.Status
	var moved bool
	switch target {
	case domain.BookStatusApproved:
		moved = book.Approve(time.Now())
	case domain.BookStatusRejected:
		moved = book.Reject()
	case domain.BookStatusArchived:
		moved = book.Archive()
	case domain.BookStatusPending:
		moved = false // Nothing returns to the queue
	}
	if !moved {
		return nil, domainerrors.Conflictf("cannot move book from %s to %s", from, target)
	}

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, err
	}

	s.logger.Info("Book status changed",
		"book_id", bookID,
		"from", from,
		"to", target,
	)

	return book, nil
}

// BulkTransitionRequest names the books and the status to move them to.
type BulkTransitionRequest struct {
	BookIDs []string          `json:"book_ids" validate:"required,min=1,max=100,dive,required"`
	Status  domain.BookStatus `json:"status" validate:"required"`
}

// BulkTransition moves many books at once. Books whose current status
// does not permit the move are skipped, not failed; the returned count
// says how many actually moved.
func (s *ModerationService) BulkTransition(ctx context.Context, req BulkTransitionRequest) (int64, error) {
	if err := s.validator.Validate(req); err != nil {
		return 0, err
	}
	if !domain.ValidBookStatus(req.Status) || req.Status == domain.BookStatusPending {
		return 0, domainerrors.Validationf("cannot bulk-move books to %q", req.Status)
	}

	moved, err := s.store.SetBooksStatus(ctx, req.BookIDs, req.Status, time.Now())
	if err != nil {
		return 0, fmt.Errorf("bulk status change: %w", err)
	}

	s.logger.Info("Bulk status change",
		"requested", len(req.BookIDs),
		"moved", moved,
		"status", req.Status,
	)

	return moved, nil
}

// SetVisibility toggles whether a book may appear publicly. Visibility
// is independent of moderation status; a hidden approved book keeps its
// approval.
func (s *ModerationService) SetVisibility(ctx context.Context, bookID string, isPublic bool) (*domain.Book, error) {
	if err := s.store.SetBookVisibility(ctx, bookID, isPublic); err != nil {
		return nil, err
	}

	s.logger.Info("Book visibility changed", "book_id", bookID, "public", isPublic)
	return s.store.GetBook(ctx, bookID)
}

// DeleteBook removes a book entirely, row and file both. Unlike
// archiving this is not reversible.
func (s *ModerationService) DeleteBook(ctx context.Context, bookID string) error {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteBook(ctx, book.ID); err != nil {
		return err
	}

	if err := s.storage.Delete(book.FilePath); err != nil {
		s.logger.Error("Failed to delete book file",
			"book_id", book.ID,
			"key", book.FilePath,
			"error", err,
		)
	}

	s.logger.Info("Book removed by moderator", "book_id", bookID)
	return nil
}
