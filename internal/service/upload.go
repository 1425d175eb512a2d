package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pothpath/pothpath-server/internal/domain"
	domainerrors "github.com/pothpath/pothpath-server/internal/errors"
	"github.com/pothpath/pothpath-server/internal/id"
	"github.com/pothpath/pothpath-server/internal/storage"
	"github.com/pothpath/pothpath-server/internal/store"
	"github.com/pothpath/pothpath-server/internal/store/sqlite"
	"github.com/pothpath/pothpath-server/internal/validation"
)

// UploadService accepts new book submissions. Every submission lands in
// pending status and waits for moderation.
type UploadService struct {
	store       *sqlite.Store
	storage     *storage.Storage
	validator   *validation.Validator
	admins      adminChecker
	baseURL     string
	maxFileSize int64
	logger      *slog.Logger
}

// NewUploadService creates a new upload service.
func NewUploadService(
	store *sqlite.Store,
	storage *storage.Storage,
	validator *validation.Validator,
	admins adminChecker,
	baseURL string,
	maxFileSize int64,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		store:       store,
		storage:     storage,
		validator:   validator,
		admins:      admins,
		baseURL:     baseURL,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// UploadRequest contains the metadata accompanying a book file.
type UploadRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Author      string   `json:"author" validate:"required,min=1,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	GenreID     string   `json:"genre_id" validate:"required"`
	IsPublic    *bool    `json:"is_public"`
	Tags        []string `json:"tags" validate:"max=10,dive,min=1,max=50"`
}

// MaxFileSize reports the configured per-file limit in bytes.
func (s *UploadService) MaxFileSize() int64 {
	return s.maxFileSize
}

// Submit validates the file and metadata, stores the file, and creates
// the pending catalog row. If the row cannot be written the stored file
// is removed again so the object store never accumulates orphans.
func (s *UploadService) Submit(ctx context.Context, uploader *domain.User, req UploadRequest, file []byte) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if int64(len(file)) > s.maxFileSize {
		return nil, domainerrors.Validationf("file exceeds maximum size of %d bytes", s.maxFileSize)
	}
	if err := storage.ValidatePDF(file); err != nil {
		return nil, err
	}

	if _, err := s.store.GetGenre(ctx, req.GenreID); err != nil {
		if store.IsNotFound(err) {
			return nil, domainerrors.Validation("unknown genre")
		}
		return nil, fmt.Errorf("check genre: %w", err)
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	now := time.Now()
	key := storage.MakeKey(req.Title, uploader.ID, now)
	if err := s.storage.Save(key, file); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	book := &domain.Book{
		Record:      domain.Record{ID: bookID},
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		FileURL:     s.baseURL + "/files/" + key,
		FilePath:    key,
		FileSize:    int64(len(file)),
		GenreID:     req.GenreID,
		Status:      domain.BookStatusPending,
		IsPublic:    isPublic,
		UploadedBy:  uploader.ID,
		Tags:        req.Tags,
		Version:     1,
	}
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		// Roll back the stored file so retries don't hit a key collision.
		if delErr := s.storage.Delete(key); delErr != nil {
			s.logger.Error("Failed to clean up file after insert failure",
				"key", key,
				"error", delErr,
			)
		}
		return nil, err
	}

	s.logger.Info("Book submitted",
		"book_id", bookID,
		"title", req.Title,
		"uploader", uploader.ID,
		"size", len(file),
	)

	return book, nil
}

// UpdateBookRequest contains uploader-editable metadata. Nil fields are
// left unchanged.
type UpdateBookRequest struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Author      *string   `json:"author" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	GenreID     *string   `json:"genre_id"`
	IsPublic    *bool     `json:"is_public"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=50"`
}

// UpdateBook edits a book's metadata. The uploader may edit their own
// books, moderators anyone's. The file itself is immutable; replacing a
// book means uploading a new one.
func (s *UploadService) UpdateBook(ctx context.Context, actor *domain.User, bookID string, req UpdateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if book.UploadedBy != actor.ID && !s.admins.IsAdmin(actor) {
		return nil, domainerrors.Forbidden("only the uploader can edit this book")
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.GenreID != nil {
		if *req.GenreID != "" {
			if _, err := s.store.GetGenre(ctx, *req.GenreID); err != nil {
				if store.IsNotFound(err) {
					return nil, domainerrors.Validation("unknown genre")
				}
				return nil, fmt.Errorf("check genre: %w", err)
			}
		}
		book.GenreID = *req.GenreID
	}
	if req.IsPublic != nil {
		book.IsPublic = *req.IsPublic
	}
	if req.Tags != nil {
		book.Tags = *req.Tags
	}

	book.Touch()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

// DeleteOwnBook removes an uploader's own book, file and row both. The
// window closes once review starts: after a book leaves pending, only a
// moderator can remove it.
func (s *UploadService) DeleteOwnBook(ctx context.Context, actor *domain.User, bookID string) error {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}

	if book.UploadedBy != actor.ID {
		return domainerrors.Forbidden("only the uploader can delete this book")
	}
	if book.Status != domain.BookStatusPending {
		return domainerrors.Conflict("only pending books can be withdrawn")
	}

	return s.removeBook(ctx, book)
}

// removeBook deletes the catalog row first, then the file. A dangling
// file is recoverable garbage; a dangling row pointing at nothing is a
// broken catalog entry.
func (s *UploadService) removeBook(ctx context.Context, book *domain.Book) error {
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

	s.logger.Info("Book deleted", "book_id", book.ID)
	return nil
}
