package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json/v2"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pothpath/pothpath-server/internal/auth"
	"github.com/pothpath/pothpath-server/internal/config"
	"github.com/pothpath/pothpath-server/internal/prefs"
	"github.com/pothpath/pothpath-server/internal/service"
	"github.com/pothpath/pothpath-server/internal/storage"
	"github.com/pothpath/pothpath-server/internal/store/sqlite"
	"github.com/pothpath/pothpath-server/internal/validation"

	"github.com/danielgtaylor/huma/v2/humatest"
)

// adminEmail is on the allow-list in every test server.
const adminEmail = "admin@pothpath.test"

// testEnvelope mirrors the response envelope for unmarshalling in tests.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api humatest.TestAPI

	// Created on first use by defaultGenre.
	genreID string
}

// setupTestServer creates a server backed by real stores in a temp dir.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	files, err := storage.NewStorage(tmpDir)
	require.NoError(t, err)

	prefStore, err := prefs.Open(filepath.Join(tmpDir, "prefs"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = prefStore.Close() })

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(hex.EncodeToString(authKey), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	validator := validation.New()
	admins := config.AdminConfig{Emails: []string{adminEmail}}

	authService := service.NewAuthService(st, tokens, validator, admins, logger)
	services := &Services{
		Auth:       authService,
		Books:      service.NewBookService(st, files, authService, logger),
		Uploads:    service.NewUploadService(st, files, validator, authService, "http://localhost:8080", 50<<20, logger),
		Moderation: service.NewModerationService(st, files, validator, logger),
		Genres:     service.NewGenreService(st, validator, logger),
		Stats:      service.NewStatsService(st, logger),
		Prefs:      service.NewPrefsService(prefStore, st, logger),
		Profile:    service.NewProfileService(st, validator, logger),
	}

	cfg := &config.Config{}
	cfg.Auth.LoginRatePerSecond = 1000
	cfg.Auth.LoginRateBurst = 1000

	s := NewServer(st, files, services, cfg, logger)
	t.Cleanup(s.Close)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

// registerUser creates an account via the API and returns its access token.
func (ts *testServer) registerUser(t *testing.T, email string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        email,
		"password":     "CorrectHorseBattery1",
		"display_name": "Test Reader",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Register failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)

	return envelope.Data.AccessToken
}

// pdfBytes builds a minimal PDF-looking payload.
func pdfBytes(filler string) []byte {
	return []byte("%PDF-1.4\n" + filler + "\n%%EOF\n")
}

// defaultGenre lazily creates a shelf for uploads that don't care which
// genre they land in.
func (ts *testServer) defaultGenre(t *testing.T) string {
	t.Helper()

	if ts.genreID == "" {
		g, err := ts.services.Genres.CreateGenre(context.Background(), service.CreateGenreRequest{Name: "General"})
		require.NoError(t, err)
		ts.genreID = g.ID
	}
	return ts.genreID
}

// uploadBook submits a book through the multipart endpoint and returns it.
func (ts *testServer) uploadBook(t *testing.T, token, title string) BookResponse {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("title", title))
	require.NoError(t, writer.WriteField("author", "Test Author"))
	require.NoError(t, writer.WriteField("genre_id", ts.defaultGenre(t)))
	part, err := writer.CreateFormFile("file", "book.pdf")
	require.NoError(t, err)
	_, err = part.Write(pdfBytes(title))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()

	ts.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, "Upload failed: %s", w.Body.String())

	var envelope struct {
		Success bool         `json:"success"`
		Data    BookResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NotEmpty(t, envelope.Data.ID)

	return envelope.Data
}

// approveBook moves a book to approved through the admin API.
func (ts *testServer) approveBook(t *testing.T, adminToken, bookID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/admin/books/"+bookID+"/approve", "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, resp.Code, "Approve failed: %s", resp.Body.String())
}
