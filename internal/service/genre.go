package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pothpath/pothpath-server/internal/domain"
	"github.com/pothpath/pothpath-server/internal/id"
	"github.com/pothpath/pothpath-server/internal/store/sqlite"
	"github.com/pothpath/pothpath-server/internal/util"
	"github.com/pothpath/pothpath-server/internal/validation"
)

// GenreService orchestrates genre operations.
type GenreService struct {
	store     *sqlite.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewGenreService creates a new genre service.
func NewGenreService(store *sqlite.Store, validator *validation.Validator, logger *slog.Logger) *GenreService {
	return &GenreService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// ListGenres returns genres in display order. With activeOnly set,
// hidden genres are excluded.
func (s *GenreService) ListGenres(ctx context.Context, activeOnly bool) ([]*domain.Genre, error) {
	return s.store.ListGenres(ctx, activeOnly)
}

// GetGenre returns a single genre by ID.
func (s *GenreService) GetGenre(ctx context.Context, id string) (*domain.Genre, error) {
	return s.store.GetGenre(ctx, id)
}

// GetGenreBySlug returns a single genre by its URL slug.
func (s *GenreService) GetGenreBySlug(ctx context.Context, slug string) (*domain.Genre, error) {
	return s.store.GetGenreBySlug(ctx, slug)
}

// CreateGenreRequest contains fields for creating a genre.
type CreateGenreRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	SortOrder   int    `json:"sort_order"`
}

// CreateGenre creates a new genre.
func (s *GenreService) CreateGenre(ctx context.Context, req CreateGenreRequest) (*domain.Genre, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	genreID, err := id.Generate("genre")
	if err != nil {
		return nil, fmt.Errorf("generate genre ID: %w", err)
	}

	g := &domain.Genre{
		Record:      domain.Record{ID: genreID},
		Name:        req.Name,
		Slug:        util.Slugify(req.Name),
		Description: req.Description,
		Color:       req.Color,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}
	g.InitTimestamps()

	if err := s.store.CreateGenre(ctx, g); err != nil {
		return nil, err
	}

	s.logger.Info("Genre created", "id", genreID, "name", req.Name)
	return g, nil
}

// UpdateGenreRequest contains fields for updating a genre.
// Nil fields are left unchanged.
type UpdateGenreRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
	SortOrder   *int    `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateGenre updates a genre.
func (s *GenreService) UpdateGenre(ctx context.Context, genreID string, req UpdateGenreRequest) (*domain.Genre, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	g, err := s.store.GetGenre(ctx, genreID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		g.Name = *req.Name
		// The slug is not regenerated on rename to preserve URLs.
	}
	if req.Description != nil {
		g.Description = *req.Description
	}
	if req.Color != nil {
		g.Color = *req.Color
	}
	if req.SortOrder != nil {
		g.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		g.IsActive = *req.IsActive
	}

	g.Touch()

	if err := s.store.UpdateGenre(ctx, g); err != nil {
		return nil, err
	}

	return g, nil
}

// DeleteGenre deletes a genre. Books that referenced it become
// uncategorized rather than disappearing from the catalog.
func (s *GenreService) DeleteGenre(ctx context.Context, genreID string) error {
	if err := s.store.DeleteGenre(ctx, genreID); err != nil {
		return err
	}

	s.logger.Info("Genre deleted", "id", genreID)
	return nil
}
