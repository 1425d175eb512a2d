package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/pothpath/pothpath-server/internal/domain"
	domainerrors "github.com/pothpath/pothpath-server/internal/errors"
	"github.com/pothpath/pothpath-server/internal/http/response"
	"github.com/pothpath/pothpath-server/internal/service"
	"github.com/pothpath/pothpath-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	// Upload uses chi directly for multipart form handling;
	// Huma doesn't easily support multipart forms.
	s.router.Post("/api/v1/books", s.handleUploadBook)
	s.router.Get("/api/v1/books/{id}/download", s.handleDownloadBook)
	s.router.Get("/files/{key}", s.handleServeFile)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "Browse the catalog",
		Description: "Returns a page of approved, public books with optional search, genre filter, and sorting",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a single book and records a view. Pending and hidden books are only visible to their uploader and admins.",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Edit book metadata",
		Description: "Edits metadata on an uploaded book. Only the uploader or an admin may edit; the file itself is immutable.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "withdrawBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Withdraw upload",
		Description: "Deletes the caller's own book while it is still pending review",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleWithdrawBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMyUploads",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/uploads",
		Summary:     "List my uploads",
		Description: "Returns the caller's uploads in every moderation status",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMyUploads)
}

// === DTOs ===

// BookResponse contains book information in API responses.
type BookResponse struct {
	ID            string     `json:"id" doc:"Book ID"`
	Title         string     `json:"title" doc:"Book title"`
	Author        string     `json:"author" doc:"Author name"`
	Description   string     `json:"description,omitempty" doc:"Book description"`
	FileURL       string     `json:"file_url" doc:"URL of the stored PDF"`
	FileSize      int64      `json:"file_size" doc:"File size in bytes"`
	GenreID       string     `json:"genre_id,omitempty" doc:"Genre ID, empty when uncategorized"`
	Status        string     `json:"status" doc:"Moderation status"`
	IsPublic      bool       `json:"is_public" doc:"Whether the book is publicly listed"`
	DownloadCount int64      `json:"download_count" doc:"Lifetime downloads"`
	ViewCount     int64      `json:"view_count" doc:"Lifetime detail views"`
	UploadedBy    string     `json:"uploaded_by" doc:"Uploader's user ID"`
	Tags          []string   `json:"tags,omitempty" doc:"Free-form tags"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty" doc:"When the book was approved"`
	CreatedAt     time.Time  `json:"created_at" doc:"Upload timestamp"`
	UpdatedAt     time.Time  `json:"updated_at" doc:"Last update timestamp"`
	Version       int64      `json:"version" doc:"Optimistic concurrency version"`
}

// BookPageResponse contains one page of books.
type BookPageResponse struct {
	Books   []BookResponse `json:"books" doc:"Books on this page"`
	Total   int            `json:"total" doc:"Total books matching the filter"`
	HasMore bool           `json:"has_more" doc:"Whether another page exists"`
}

// ListBooksInput carries the catalog filters.
type ListBooksInput struct {
	Search  string `query:"search" doc:"Substring match on title, author, and description"`
	GenreID string `query:"genre" doc:"Filter to a single genre"`
	Sort    string `query:"sort" doc:"Sort order: newest, oldest, az, or popular"`
	Limit   int    `query:"limit" doc:"Page size, defaults to 12"`
	Offset  int    `query:"offset" doc:"Rows to skip"`
}

// BookPageOutput wraps a book page for Huma.
type BookPageOutput struct {
	Body BookPageResponse
}

// GetBookInput identifies a single book.
type GetBookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book ID"`
}

// BookOutput wraps a single book for Huma.
type BookOutput struct {
	Body BookResponse
}

// UpdateBookRequest carries editable metadata. Omitted fields are left unchanged.
type UpdateBookRequest struct {
	Title       *string   `json:"title,omitempty" doc:"New title"`
	Author      *string   `json:"author,omitempty" doc:"New author"`
	Description *string   `json:"description,omitempty" doc:"New description"`
	GenreID     *string   `json:"genre_id,omitempty" doc:"New genre, empty string clears it"`
	IsPublic    *bool     `json:"is_public,omitempty" doc:"Public listing flag"`
	Tags        *[]string `json:"tags,omitempty" doc:"Replacement tag list"`
}

// UpdateBookInput wraps the update request for Huma.
type UpdateBookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book ID"`
	Body          UpdateBookRequest
}

// WithdrawBookInput identifies the book to withdraw.
type WithdrawBookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book ID"`
}

// ListMyUploadsInput carries pagination for the caller's uploads.
type ListMyUploadsInput struct {
	Authorization string `header:"Authorization"`
	Limit         int    `query:"limit" doc:"Page size, defaults to 12"`
	Offset        int    `query:"offset" doc:"Rows to skip"`
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BookPageOutput, error) {
	page, err := s.services.Books.Browse(ctx, service.BrowseRequest{
		Search:  input.Search,
		GenreID: input.GenreID,
		Sort:    input.Sort,
		Limit:   input.Limit,
		Offset:  input.Offset,
	})
	if err != nil {
		var domainErr *domainerrors.Error
		if domainerrors.As(err, &domainErr) {
			return nil, err
		}
		// Query failures read as an empty shelf, not an outage.
		s.logger.Error("Catalog browse failed", "error", err)
		return &BookPageOutput{Body: BookPageResponse{Books: []BookResponse{}}}, nil
	}

	return &BookPageOutput{Body: mapBookPage(page)}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	viewer := s.CurrentUser(ctx)

	book, err := s.services.Books.GetBook(ctx, viewer, input.ID)
	if err != nil {
		return nil, err
	}

	s.services.Books.RecordView(ctx, viewer, book)

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	actor, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Uploads.UpdateBook(ctx, actor, input.ID, service.UpdateBookRequest{
		Title:       input.Body.Title,
		Author:      input.Body.Author,
		Description: input.Body.Description,
		GenreID:     input.Body.GenreID,
		IsPublic:    input.Body.IsPublic,
		Tags:        input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleWithdrawBook(ctx context.Context, input *WithdrawBookInput) (*MessageOutput, error) {
	actor, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Uploads.DeleteOwnBook(ctx, actor, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Book withdrawn"}}, nil
}

func (s *Server) handleListMyUploads(ctx context.Context, input *ListMyUploadsInput) (*BookPageOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Books.ListUserUploads(ctx, user.ID, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	return &BookPageOutput{Body: mapBookPage(page)}, nil
}

// handleUploadBook accepts a multipart upload with a "file" part and a
// metadata form field per UploadRequest.
// POST /api/v1/books
func (s *Server) handleUploadBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	uploader, err := s.RequireUser(ctx)
	if err != nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	maxSize := s.services.Uploads.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20) // headroom for the form fields

	if err := r.ParseMultipartForm(maxSize); err != nil {
		response.BadRequest(w, "Failed to parse form data", s.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file uploaded. Use 'file' field in multipart form", s.logger)
		return
	}
	defer file.Close()

	data := make([]byte, header.Size)
	if _, err := io.ReadFull(file, data); err != nil {
		s.logger.Error("Failed to read uploaded file", "error", err)
		response.InternalError(w, "Failed to read uploaded file", s.logger)
		return
	}

	isPublic := r.FormValue("is_public") != "false"
	req := service.UploadRequest{
		Title:       r.FormValue("title"),
		Author:      r.FormValue("author"),
		Description: r.FormValue("description"),
		GenreID:     r.FormValue("genre_id"),
		IsPublic:    &isPublic,
		Tags:        r.Form["tags"],
	}

	book, err := s.services.Uploads.Submit(ctx, uploader, req, data)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, mapBookResponse(book), s.logger)
}

// handleDownloadBook streams the PDF with HTTP Range support and counts
// the download for visible books.
// GET /api/v1/books/{id}/download
func (s *Server) handleDownloadBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := s.CurrentUser(ctx)
	bookID := chi.URLParam(r, "id")

	if bookID == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	book, reader, _, err := s.services.Books.Download(ctx, viewer, bookID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+book.Title+`.pdf"`)
	w.Header().Set("Cache-Control", CacheNoStore)

	// ServeContent handles Range requests and conditional headers.
	http.ServeContent(w, r, book.Title+".pdf", book.UpdatedAt, reader)
}

// handleServeFile serves a stored PDF inline by storage key. The same
// visibility rules apply as for the book itself; views and downloads
// are not counted here.
// GET /files/{key}
func (s *Server) handleServeFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "key")

	if key == "" {
		response.BadRequest(w, "File key is required", s.logger)
		return
	}

	book, err := s.store.GetBookByFileKey(ctx, key)
	if err != nil {
		response.NotFound(w, "File not found", s.logger)
		return
	}

	// Re-fetch through the service so the visibility check applies.
	viewer := s.CurrentUser(ctx)
	if _, err := s.services.Books.GetBook(ctx, viewer, book.ID); err != nil {
		response.NotFound(w, "File not found", s.logger)
		return
	}

	reader, _, err := s.storage.Open(key)
	if err != nil {
		s.logger.Error("Book file missing from disk", "book_id", book.ID, "key", key)
		response.NotFound(w, "File not found on disk", s.logger)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Cache-Control", CacheOneDayPrivate)
	http.ServeContent(w, r, key, book.UpdatedAt, reader)
}

// === Helpers ===

func mapBookResponse(b *domain.Book) BookResponse {
	return BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Description:   b.Description,
		FileURL:       b.FileURL,
		FileSize:      b.FileSize,
		GenreID:       b.GenreID,
		Status:        string(b.Status),
		IsPublic:      b.IsPublic,
		DownloadCount: b.DownloadCount,
		ViewCount:     b.ViewCount,
		UploadedBy:    b.UploadedBy,
		Tags:          b.Tags,
		ApprovedAt:    b.ApprovedAt,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
		Version:       b.Version,
	}
}

func mapBookPage(page *store.Page[*domain.Book]) BookPageResponse {
	books := make([]BookResponse, len(page.Items))
	for i, b := range page.Items {
		books[i] = mapBookResponse(b)
	}
	return BookPageResponse{
		Books:   books,
		Total:   page.Total,
		HasMore: page.HasMore,
	}
}
