package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pothpath/pothpath-server/internal/domain"
)

func (s *Server) registerPrefsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPreferences",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/preferences",
		Summary:     "Get preferences",
		Tags:        []string{"Preferences"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetPreferences)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFavorites",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/favorites",
		Summary:     "List favorite books",
		Description: "Resolves the caller's favorites to full books, skipping ones no longer visible to them",
		Tags:        []string{"Preferences"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFavorites)

	huma.Register(s.api, huma.Operation{
		OperationID: "addFavorite",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/me/favorites/{bookID}",
		Summary:     "Add favorite",
		Tags:        []string{"Preferences"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFavorite",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/me/favorites/{bookID}",
		Summary:     "Remove favorite",
		Tags:        []string{"Preferences"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "setBookmark",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/me/bookmarks/{bookID}",
		Summary:     "Set bookmark",
		Description: "Records the last page read for a book. Page zero clears the bookmark.",
		Tags:        []string{"Preferences"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetBookmark)

	huma.Register(s.api, huma.Operation{
		OperationID: "setViewMode",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/me/view-mode",
		Summary:     "Set view mode",
		Tags:        []string{"Preferences"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetViewMode)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetPreferences",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/me/preferences",
		Summary:     "Reset preferences",
		Tags:        []string{"Preferences"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleResetPreferences)
}

// === DTOs ===

// PreferencesResponse contains a user's reading preferences.
type PreferencesResponse struct {
	Favorites []string       `json:"favorites" doc:"Favorite book IDs in insertion order"`
	Bookmarks map[string]int `json:"bookmarks" doc:"Book ID to last page read"`
	ViewMode  string         `json:"view_mode" doc:"grid or list"`
	UpdatedAt time.Time      `json:"updated_at" doc:"Last change timestamp"`
}

// PreferencesInput carries the auth header for Huma.
type PreferencesInput struct {
	Authorization string `header:"Authorization"`
}

// PreferencesOutput wraps the preferences response for Huma.
type PreferencesOutput struct {
	Body PreferencesResponse
}

// FavoriteInput identifies a favorite book.
type FavoriteInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `path:"bookID" doc:"Book ID"`
}

// FavoritesOutput wraps the resolved favorites list for Huma.
type FavoritesOutput struct {
	Body struct {
		Books []BookResponse `json:"books" doc:"Favorite books still visible to the caller"`
	}
}

// SetBookmarkRequest is the request body for recording a reading position.
type SetBookmarkRequest struct {
	Page int `json:"page" doc:"Last page read, zero clears the bookmark"`
}

// SetBookmarkInput wraps the bookmark request for Huma.
type SetBookmarkInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `path:"bookID" doc:"Book ID"`
	Body          SetBookmarkRequest
}

// SetViewModeRequest is the request body for switching the list layout.
type SetViewModeRequest struct {
	ViewMode string `json:"view_mode" validate:"required" doc:"grid or list"`
}

// SetViewModeInput wraps the view mode request for Huma.
type SetViewModeInput struct {
	Authorization string `header:"Authorization"`
	Body          SetViewModeRequest
}

// === Handlers ===

func (s *Server) handleGetPreferences(ctx context.Context, _ *PreferencesInput) (*PreferencesOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	prefs, err := s.services.Prefs.GetPreferences(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &PreferencesOutput{Body: mapPreferencesResponse(prefs)}, nil
}

func (s *Server) handleListFavorites(ctx context.Context, _ *PreferencesInput) (*FavoritesOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Prefs.ListFavoriteBooks(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	out := &FavoritesOutput{}
	out.Body.Books = make([]BookResponse, len(books))
	for i, b := range books {
		out.Body.Books[i] = mapBookResponse(b)
	}
	return out, nil
}

func (s *Server) handleAddFavorite(ctx context.Context, input *FavoriteInput) (*PreferencesOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	prefs, err := s.services.Prefs.AddFavorite(ctx, user.ID, input.BookID)
	if err != nil {
		return nil, err
	}

	return &PreferencesOutput{Body: mapPreferencesResponse(prefs)}, nil
}

func (s *Server) handleRemoveFavorite(ctx context.Context, input *FavoriteInput) (*PreferencesOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	prefs, err := s.services.Prefs.RemoveFavorite(ctx, user.ID, input.BookID)
	if err != nil {
		return nil, err
	}

	return &PreferencesOutput{Body: mapPreferencesResponse(prefs)}, nil
}

func (s *Server) handleSetBookmark(ctx context.Context, input *SetBookmarkInput) (*PreferencesOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	prefs, err := s.services.Prefs.SetBookmark(ctx, user.ID, input.BookID, input.Body.Page)
	if err != nil {
		return nil, err
	}

	return &PreferencesOutput{Body: mapPreferencesResponse(prefs)}, nil
}

func (s *Server) handleSetViewMode(ctx context.Context, input *SetViewModeInput) (*PreferencesOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	prefs, err := s.services.Prefs.SetViewMode(ctx, user.ID, domain.ViewMode(input.Body.ViewMode))
	if err != nil {
		return nil, err
	}

	return &PreferencesOutput{Body: mapPreferencesResponse(prefs)}, nil
}

func (s *Server) handleResetPreferences(ctx context.Context, _ *PreferencesInput) (*MessageOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Prefs.DeletePreferences(ctx, user.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Preferences reset"}}, nil
}

// === Helpers ===

func mapPreferencesResponse(p *domain.Preferences) PreferencesResponse {
	favorites := p.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	bookmarks := p.Bookmarks
	if bookmarks == nil {
		bookmarks = map[string]int{}
	}
	return PreferencesResponse{
		Favorites: favorites,
		Bookmarks: bookmarks,
		ViewMode:  string(p.ViewMode),
		UpdatedAt: p.UpdatedAt,
	}
}
