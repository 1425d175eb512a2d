package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "me@example.com")

	resp := ts.api.Get("/api/v1/users/me", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.Equal(t, "me@example.com", envelope.Data.Email)
	assert.Equal(t, "Test Reader", envelope.Data.DisplayName)
	assert.False(t, envelope.Data.IsAdmin)
}

func TestGetCurrentUser_AdminFlag(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, adminEmail)

	resp := ts.api.Get("/api/v1/users/me", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.IsAdmin)
}

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "bio@example.com")
	auth := "Authorization: Bearer " + token

	resp := ts.api.Patch("/api/v1/users/me", auth, map[string]any{
		"bio": "Reads mostly at night.",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.Equal(t, "Reads mostly at night.", envelope.Data.Bio)
	// Untouched fields keep their values.
	assert.Equal(t, "Test Reader", envelope.Data.DisplayName)
}

func TestChangePassword_Flow(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerUser(t, "rotator@example.com")
	auth := "Authorization: Bearer " + token

	wrong := ts.api.Post("/api/v1/users/me/password", auth, map[string]any{
		"current_password": "notTheRightOne1",
		"new_password":     "EntirelyNewSecret9",
	})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)

	ok := ts.api.Post("/api/v1/users/me/password", auth, map[string]any{
		"current_password": "CorrectHorseBattery1",
		"new_password":     "EntirelyNewSecret9",
	})
	require.Equal(t, http.StatusOK, ok.Code)

	oldLogin := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "rotator@example.com",
		"password": "CorrectHorseBattery1",
	})
	assert.Equal(t, http.StatusUnauthorized, oldLogin.Code)

	newLogin := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "rotator@example.com",
		"password": "EntirelyNewSecret9",
	})
	assert.Equal(t, http.StatusOK, newLogin.Code)
}
