package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pothpath/pothpath-server/internal/domain"
	"github.com/pothpath/pothpath-server/internal/service"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooksForModeration",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/books",
		Summary:     "List books for moderation",
		Description: "Returns books in a given status, oldest first, so the review queue is worked in arrival order (admin only)",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBooksForModeration)

	huma.Register(s.api, huma.Operation{
		OperationID: "approveBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/books/{id}/approve",
		Summary:     "Approve book",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleApproveBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "rejectBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/books/{id}/reject",
		Summary:     "Reject book",
		Description: "Rejects a pending book. Rejection is final; the uploader must submit a new book.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRejectBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "archiveBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/books/{id}/archive",
		Summary:     "Archive book",
		Description: "Pulls an approved book from the catalog. Archived books can be restored by approving them again.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleArchiveBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "bulkSetBookStatus",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/books/status",
		Summary:     "Bulk status change",
		Description: "Moves many books to the same status. Books whose current status does not permit the move are skipped, not failed.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleBulkSetBookStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "setBookVisibility",
		Method:      http.MethodPut,
		Path:        "/api/v1/admin/books/{id}/visibility",
		Summary:     "Set book visibility",
		Description: "Hides or shows a book without touching its moderation status (admin only)",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetBookVisibility)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/books/{id}",
		Summary:     "Delete book",
		Description: "Permanently removes a book and its file (admin only)",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLibraryStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/stats",
		Summary:     "Library statistics",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetLibraryStats)
}

// === DTOs ===

// ModerationListInput carries the queue filters.
type ModerationListInput struct {
	Authorization string `header:"Authorization"`
	Status        string `query:"status" doc:"Filter to one status; empty lists everything"`
	Limit         int    `query:"limit" doc:"Page size, defaults to 12"`
	Offset        int    `query:"offset" doc:"Rows to skip"`
}

// ModerateBookInput identifies the book to transition.
type ModerateBookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book ID"`
}

// BulkStatusRequest is the request body for a bulk transition.
type BulkStatusRequest struct {
	BookIDs []string `json:"book_ids" doc:"Books to move"`
	Status  string   `json:"status" doc:"Target status"`
}

// BulkStatusInput wraps the bulk request for Huma.
type BulkStatusInput struct {
	Authorization string `header:"Authorization"`
	Body          BulkStatusRequest
}

// BulkStatusResponse reports how many books actually moved.
type BulkStatusResponse struct {
	Moved int64 `json:"moved" doc:"Books whose status changed"`
}

// BulkStatusOutput wraps the bulk response for Huma.
type BulkStatusOutput struct {
	Body BulkStatusResponse
}

// SetVisibilityRequest is the request body for a visibility change.
type SetVisibilityRequest struct {
	IsPublic bool `json:"is_public" doc:"Whether the book is publicly listed"`
}

// SetVisibilityInput wraps the visibility request for Huma.
type SetVisibilityInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book ID"`
	Body          SetVisibilityRequest
}

// StatsOutput wraps the library statistics for Huma.
type StatsOutput struct {
	Body service.LibraryStats
}

// === Handlers ===

func (s *Server) handleListBooksForModeration(ctx context.Context, input *ModerationListInput) (*BookPageOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	page, err := s.services.Moderation.ListByStatus(ctx, domain.BookStatus(input.Status), input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	return &BookPageOutput{Body: mapBookPage(page)}, nil
}

func (s *Server) handleApproveBook(ctx context.Context, input *ModerateBookInput) (*BookOutput, error) {
	return s.transitionBook(ctx, input.ID, domain.BookStatusApproved)
}

func (s *Server) handleRejectBook(ctx context.Context, input *ModerateBookInput) (*BookOutput, error) {
	return s.transitionBook(ctx, input.ID, domain.BookStatusRejected)
}

func (s *Server) handleArchiveBook(ctx context.Context, input *ModerateBookInput) (*BookOutput, error) {
	return s.transitionBook(ctx, input.ID, domain.BookStatusArchived)
}

func (s *Server) transitionBook(ctx context.Context, bookID string, target domain.BookStatus) (*BookOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	book, err := s.services.Moderation.Transition(ctx, bookID, target)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleBulkSetBookStatus(ctx context.Context, input *BulkStatusInput) (*BulkStatusOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	moved, err := s.services.Moderation.BulkTransition(ctx, service.BulkTransitionRequest{
		BookIDs: input.Body.BookIDs,
		Status:  domain.BookStatus(input.Body.Status),
	})
	if err != nil {
		return nil, err
	}

	return &BulkStatusOutput{Body: BulkStatusResponse{Moved: moved}}, nil
}

func (s *Server) handleSetBookVisibility(ctx context.Context, input *SetVisibilityInput) (*BookOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	book, err := s.services.Moderation.SetVisibility(ctx, input.ID, input.Body.IsPublic)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *ModerateBookInput) (*MessageOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	if err := s.services.Moderation.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Book deleted"}}, nil
}

func (s *Server) handleGetLibraryStats(ctx context.Context, _ *GetCurrentUserInput) (*StatsOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	stats, err := s.services.Stats.GetLibraryStats(ctx)
	if err != nil {
		return nil, err
	}

	return &StatsOutput{Body: *stats}, nil
}
