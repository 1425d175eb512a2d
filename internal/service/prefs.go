package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pothpath/pothpath-server/internal/domain"
	domainerrors "github.com/pothpath/pothpath-server/internal/errors"
	"github.com/pothpath/pothpath-server/internal/prefs"
	"github.com/pothpath/pothpath-server/internal/store/sqlite"
)

// PrefsService manages per-user reading preferences: favorites,
// bookmarks, and the browse view mode.
type PrefsService struct {
	prefs  *prefs.Store
	store  *sqlite.Store
	logger *slog.Logger
}

// NewPrefsService creates a new preferences service.
func NewPrefsService(prefs *prefs.Store, store *sqlite.Store, logger *slog.Logger) *PrefsService {
	return &PrefsService{
		prefs:  prefs,
		store:  store,
		logger: logger,
	}
}

// GetPreferences returns the user's preferences, defaults included for
// users who never saved any.
func (s *PrefsService) GetPreferences(_ context.Context, userID string) (*domain.Preferences, error) {
	return s.prefs.Get(userID)
}

// AddFavorite marks a book as a favorite. The book must exist, but it
// does not have to be visible: favorites survive a book being archived.
func (s *PrefsService) AddFavorite(ctx context.Context, userID, bookID string) (*domain.Preferences, error) {
	exists, err := s.store.BookExists(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("check book: %w", err)
	}
	if !exists {
		return nil, domainerrors.NotFound("book not found")
	}

	p, err := s.prefs.Get(userID)
	if err != nil {
		return nil, err
	}

	if p.AddFavorite(bookID) {
		p.UpdatedAt = time.Now()
		if err := s.prefs.Save(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// RemoveFavorite unmarks a favorite. Removing a book that was never a
// favorite is a no-op, not an error.
func (s *PrefsService) RemoveFavorite(_ context.Context, userID, bookID string) (*domain.Preferences, error) {
	p, err := s.prefs.Get(userID)
	if err != nil {
		return nil, err
	}

	if p.RemoveFavorite(bookID) {
		p.UpdatedAt = time.Now()
		if err := s.prefs.Save(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// SetBookmark records the user's reading position in a book. A page of
// zero or less clears the bookmark.
func (s *PrefsService) SetBookmark(ctx context.Context, userID, bookID string, page int) (*domain.Preferences, error) {
	if page > 0 {
		exists, err := s.store.BookExists(ctx, bookID)
		if err != nil {
			return nil, fmt.Errorf("check book: %w", err)
		}
		if !exists {
			return nil, domainerrors.NotFound("book not found")
		}
	}

	p, err := s.prefs.Get(userID)
	if err != nil {
		return nil, err
	}

	p.SetBookmark(bookID, page)
	p.UpdatedAt = time.Now()
	if err := s.prefs.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetViewMode switches between grid and list browsing.
func (s *PrefsService) SetViewMode(_ context.Context, userID string, mode domain.ViewMode) (*domain.Preferences, error) {
	if mode != domain.ViewModeGrid && mode != domain.ViewModeList {
		return nil, domainerrors.Validationf("unknown view mode %q", mode)
	}

	p, err := s.prefs.Get(userID)
	if err != nil {
		return nil, err
	}

	p.ViewMode = mode
	p.UpdatedAt = time.Now()
	if err := s.prefs.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListFavoriteBooks resolves favorites to the books the user may still
// see. Books that were deleted or hidden since being favorited are
// silently filtered out.
func (s *PrefsService) ListFavoriteBooks(ctx context.Context, userID string) ([]*domain.Book, error) {
	p, err := s.prefs.Get(userID)
	if err != nil {
		return nil, err
	}

	books := make([]*domain.Book, 0, len(p.Favorites))
	for _, bookID := range p.Favorites {
		book, err := s.store.GetBook(ctx, bookID)
		if err != nil {
			continue
		}
		if book.Visible() || book.UploadedBy == userID {
			books = append(books, book)
		}
	}
	return books, nil
}

// DeletePreferences wipes a user's preference record.
func (s *PrefsService) DeletePreferences(_ context.Context, userID string) error {
	if err := s.prefs.Delete(userID); err != nil {
		return err
	}
	s.logger.Info("Preferences deleted", "user_id", userID)
	return nil
}
