package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) createGenre(t *testing.T, adminToken, name string) GenreResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/genres",
		"Authorization: Bearer "+adminToken,
		map[string]any{"name": name})
	require.Equal(t, http.StatusOK, resp.Code, "Create genre failed: %s", resp.Body.String())

	var envelope testEnvelope[GenreResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.ID)

	return envelope.Data
}

func TestCreateGenre_AdminOnly(t *testing.T) {
	ts := setupTestServer(t)
	userToken := ts.registerUser(t, "plain@example.com")
	adminToken := ts.registerUser(t, adminEmail)

	denied := ts.api.Post("/api/v1/genres",
		"Authorization: Bearer "+userToken,
		map[string]any{"name": "Forbidden Fiction"})
	assert.Equal(t, http.StatusForbidden, denied.Code)

	genre := ts.createGenre(t, adminToken, "Science Fiction")
	assert.Equal(t, "Science Fiction", genre.Name)
	assert.Equal(t, "science-fiction", genre.Slug)
	assert.True(t, genre.IsActive)
}

func TestCreateGenre_DuplicateName(t *testing.T) {
	ts := setupTestServer(t)
	adminToken := ts.registerUser(t, adminEmail)

	ts.createGenre(t, adminToken, "Horror")

	resp := ts.api.Post("/api/v1/genres",
		"Authorization: Bearer "+adminToken,
		map[string]any{"name": "Horror"})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestListGenres_ActiveOnlyByDefault(t *testing.T) {
	ts := setupTestServer(t)
	adminToken := ts.registerUser(t, adminEmail)

	active := ts.createGenre(t, adminToken, "Biography")
	retired := ts.createGenre(t, adminToken, "Phrenology")

	resp := ts.api.Patch("/api/v1/genres/"+retired.ID,
		"Authorization: Bearer "+adminToken,
		map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, resp.Code)

	list := ts.api.Get("/api/v1/genres")
	require.Equal(t, http.StatusOK, list.Code)

	var envelope testEnvelope[ListGenresResponse]
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &envelope))

	require.Len(t, envelope.Data.Genres, 1)
	assert.Equal(t, active.ID, envelope.Data.Genres[0].ID)
}

func TestListGenres_IncludeInactiveRequiresAdmin(t *testing.T) {
	ts := setupTestServer(t)
	userToken := ts.registerUser(t, "curious@example.com")
	adminToken := ts.registerUser(t, adminEmail)

	genre := ts.createGenre(t, adminToken, "Occult")
	ts.api.Patch("/api/v1/genres/"+genre.ID,
		"Authorization: Bearer "+adminToken,
		map[string]any{"is_active": false})

	denied := ts.api.Get("/api/v1/genres?include_inactive=true",
		"Authorization: Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, denied.Code)

	allowed := ts.api.Get("/api/v1/genres?include_inactive=true",
		"Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, allowed.Code)

	var envelope testEnvelope[ListGenresResponse]
	require.NoError(t, json.Unmarshal(allowed.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Genres, 1)
	assert.False(t, envelope.Data.Genres[0].IsActive)
}

func TestGetGenreBySlug(t *testing.T) {
	ts := setupTestServer(t)
	adminToken := ts.registerUser(t, adminEmail)

	created := ts.createGenre(t, adminToken, "True Crime")

	resp := ts.api.Get("/api/v1/genres/slug/true-crime")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[GenreResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, created.ID, envelope.Data.ID)

	missing := ts.api.Get("/api/v1/genres/slug/no-such-genre")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestUpdateGenre_RenameReslugs(t *testing.T) {
	ts := setupTestServer(t)
	adminToken := ts.registerUser(t, adminEmail)

	genre := ts.createGenre(t, adminToken, "Self Help")

	resp := ts.api.Patch("/api/v1/genres/"+genre.ID,
		"Authorization: Bearer "+adminToken,
		map[string]any{"name": "Personal Growth"})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[GenreResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "Personal Growth", envelope.Data.Name)
	assert.Equal(t, "personal-growth", envelope.Data.Slug)
}

func TestDeleteGenre_DetachesBooks(t *testing.T) {
	ts := setupTestServer(t)
	userToken := ts.registerUser(t, "shelver@example.com")
	adminToken := ts.registerUser(t, adminEmail)

	genre := ts.createGenre(t, adminToken, "Fantasy")

	book := ts.uploadBook(t, userToken, "Shelved Book")
	resp := ts.api.Patch("/api/v1/books/"+book.ID,
		"Authorization: Bearer "+userToken,
		map[string]any{"genre_id": genre.ID})
	require.Equal(t, http.StatusOK, resp.Code)

	ok := ts.api.Delete("/api/v1/genres/"+genre.ID, "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, ok.Code)

	// The shelved book survives, now uncategorized.
	detail := ts.api.Get("/api/v1/books/"+book.ID, "Authorization: Bearer "+userToken)
	require.Equal(t, http.StatusOK, detail.Code)

	var envelope testEnvelope[BookResponse]
	require.NoError(t, json.Unmarshal(detail.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data.GenreID)
}
