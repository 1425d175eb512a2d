package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pothpath/pothpath-server/internal/domain"
	"github.com/pothpath/pothpath-server/internal/service"
)

func (s *Server) registerGenreRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres",
		Summary:     "List genres",
		Description: "Returns active genres. Admins may pass include_inactive to see the full list.",
		Tags:        []string{"Genres"},
	}, s.handleListGenres)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGenre",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres/{id}",
		Summary:     "Get genre",
		Tags:        []string{"Genres"},
	}, s.handleGetGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGenreBySlug",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres/slug/{slug}",
		Summary:     "Get genre by slug",
		Tags:        []string{"Genres"},
	}, s.handleGetGenreBySlug)

	huma.Register(s.api, huma.Operation{
		OperationID: "createGenre",
		Method:      http.MethodPost,
		Path:        "/api/v1/genres",
		Summary:     "Create genre",
		Description: "Creates a new genre (admin only)",
		Tags:        []string{"Genres"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateGenre",
		Method:      http.MethodPatch,
		Path:        "/api/v1/genres/{id}",
		Summary:     "Update genre",
		Description: "Updates genre metadata (admin only). The slug never changes after creation.",
		Tags:        []string{"Genres"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteGenre",
		Method:      http.MethodDelete,
		Path:        "/api/v1/genres/{id}",
		Summary:     "Delete genre",
		Description: "Deletes a genre (admin only). Its books become uncategorized.",
		Tags:        []string{"Genres"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteGenre)
}

// === DTOs ===

// GenreResponse contains genre information in API responses.
type GenreResponse struct {
	ID          string    `json:"id" doc:"Genre ID"`
	Name        string    `json:"name" doc:"Display name"`
	Slug        string    `json:"slug" doc:"URL-safe key"`
	Description string    `json:"description,omitempty" doc:"Optional description"`
	Color       string    `json:"color,omitempty" doc:"Hex color for UI badges"`
	SortOrder   int       `json:"sort_order" doc:"Manual ordering"`
	IsActive    bool      `json:"is_active" doc:"Whether the genre appears in browse filters"`
	BookCount   int       `json:"book_count,omitempty" doc:"Approved books in this genre"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update timestamp"`
}

// ListGenresInput carries the listing filter.
type ListGenresInput struct {
	Authorization   string `header:"Authorization"`
	IncludeInactive bool   `query:"include_inactive" doc:"Include inactive genres (admin only)"`
}

// ListGenresResponse contains a list of genres.
type ListGenresResponse struct {
	Genres []GenreResponse `json:"genres" doc:"Genres"`
}

// ListGenresOutput wraps the list response for Huma.
type ListGenresOutput struct {
	Body ListGenresResponse
}

// GetGenreInput identifies a genre by ID.
type GetGenreInput struct {
	ID string `path:"id" doc:"Genre ID"`
}

// GetGenreBySlugInput identifies a genre by slug.
type GetGenreBySlugInput struct {
	Slug string `path:"slug" doc:"Genre slug"`
}

// GenreOutput wraps a single genre for Huma.
type GenreOutput struct {
	Body GenreResponse
}

// CreateGenreRequest is the request body for genre creation.
type CreateGenreRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100" doc:"Display name"`
	Description string `json:"description,omitempty" validate:"max=500" doc:"Optional description"`
	Color       string `json:"color,omitempty" validate:"omitempty,hexcolor" doc:"Hex color"`
	SortOrder   int    `json:"sort_order,omitempty" doc:"Manual ordering"`
}

// CreateGenreInput wraps the create request for Huma.
type CreateGenreInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateGenreRequest
}

// UpdateGenreRequest carries editable genre fields. Omitted fields are unchanged.
type UpdateGenreRequest struct {
	Name        *string `json:"name,omitempty" doc:"New display name"`
	Description *string `json:"description,omitempty" doc:"New description"`
	Color       *string `json:"color,omitempty" doc:"New hex color"`
	SortOrder   *int    `json:"sort_order,omitempty" doc:"New sort order"`
	IsActive    *bool   `json:"is_active,omitempty" doc:"Activate or deactivate"`
}

// UpdateGenreInput wraps the update request for Huma.
type UpdateGenreInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Genre ID"`
	Body          UpdateGenreRequest
}

// DeleteGenreInput identifies the genre to delete.
type DeleteGenreInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Genre ID"`
}

// === Handlers ===

func (s *Server) handleListGenres(ctx context.Context, input *ListGenresInput) (*ListGenresOutput, error) {
	activeOnly := true
	if input.IncludeInactive {
		if _, err := s.RequireAdmin(ctx); err != nil {
			return nil, err
		}
		activeOnly = false
	}

	genres, err := s.services.Genres.ListGenres(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	resp := make([]GenreResponse, len(genres))
	for i, g := range genres {
		resp[i] = mapGenreResponse(g)
	}

	return &ListGenresOutput{Body: ListGenresResponse{Genres: resp}}, nil
}

func (s *Server) handleGetGenre(ctx context.Context, input *GetGenreInput) (*GenreOutput, error) {
	g, err := s.services.Genres.GetGenre(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &GenreOutput{Body: mapGenreResponse(g)}, nil
}

func (s *Server) handleGetGenreBySlug(ctx context.Context, input *GetGenreBySlugInput) (*GenreOutput, error) {
	g, err := s.services.Genres.GetGenreBySlug(ctx, input.Slug)
	if err != nil {
		return nil, err
	}

	return &GenreOutput{Body: mapGenreResponse(g)}, nil
}

func (s *Server) handleCreateGenre(ctx context.Context, input *CreateGenreInput) (*GenreOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	g, err := s.services.Genres.CreateGenre(ctx, service.CreateGenreRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Color:       input.Body.Color,
		SortOrder:   input.Body.SortOrder,
	})
	if err != nil {
		return nil, err
	}

	return &GenreOutput{Body: mapGenreResponse(g)}, nil
}

func (s *Server) handleUpdateGenre(ctx context.Context, input *UpdateGenreInput) (*GenreOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	g, err := s.services.Genres.UpdateGenre(ctx, input.ID, service.UpdateGenreRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Color:       input.Body.Color,
		SortOrder:   input.Body.SortOrder,
		IsActive:    input.Body.IsActive,
	})
	if err != nil {
		return nil, err
	}

	return &GenreOutput{Body: mapGenreResponse(g)}, nil
}

func (s *Server) handleDeleteGenre(ctx context.Context, input *DeleteGenreInput) (*MessageOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	if err := s.services.Genres.DeleteGenre(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Genre deleted"}}, nil
}

// === Helpers ===

func mapGenreResponse(g *domain.Genre) GenreResponse {
	return GenreResponse{
		ID:          g.ID,
		Name:        g.Name,
		Slug:        g.Slug,
		Description: g.Description,
		Color:       g.Color,
		SortOrder:   g.SortOrder,
		IsActive:    g.IsActive,
		BookCount:   g.BookCount,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}
