package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/pothpath/pothpath-server/internal/errors"
)

func TestAuthService_Register_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:       "reader@pothpath.test",
		Password:    "correct-horse-battery",
		DisplayName: "Reader",
	})
	require.NoError(t, err)

	assert.Equal(t, "reader@pothpath.test", resp.User.Email)
	assert.Equal(t, "Reader", resp.User.DisplayName)
	assert.NotEmpty(t, resp.User.ID)
	assert.NotEqual(t, "correct-horse-battery", resp.User.PasswordHash)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int((15 * 60)), resp.ExpiresIn)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := RegisterRequest{Email: "reader@pothpath.test", Password: "correct-horse-battery"}
	_, err := env.auth.Register(ctx, req)
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already in use")
}

func TestAuthService_Register_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing email", RegisterRequest{Password: "correct-horse-battery"}},
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "correct-horse-battery"}},
		{"short password", RegisterRequest{Email: "a@b.test", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "reader@pothpath.test",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	resp, err := env.auth.Login(ctx, LoginRequest{
		Email:    "reader@pothpath.test",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.False(t, resp.User.LastLoginAt.IsZero())

	// Wrong password and unknown email produce the same message.
	_, badPass := env.auth.Login(ctx, LoginRequest{Email: "reader@pothpath.test", Password: "wrong"})
	_, badEmail := env.auth.Login(ctx, LoginRequest{Email: "nobody@pothpath.test", Password: "wrong"})
	require.Error(t, badPass)
	require.Error(t, badEmail)
	assert.Equal(t, badPass.Error(), badEmail.Error())
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "reader@pothpath.test",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	refreshed, err := env.auth.Refresh(ctx, RefreshRequest{RefreshToken: reg.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, reg.RefreshToken, refreshed.RefreshToken)

	// The old refresh token is dead after rotation.
	_, err = env.auth.Refresh(ctx, RefreshRequest{RefreshToken: reg.RefreshToken})
	require.Error(t, err)

	// The new one still works.
	_, err = env.auth.Refresh(ctx, RefreshRequest{RefreshToken: refreshed.RefreshToken})
	require.NoError(t, err)
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "reader@pothpath.test",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, reg.RefreshToken))

	_, err = env.auth.Refresh(ctx, RefreshRequest{RefreshToken: reg.RefreshToken})
	require.Error(t, err)

	// Logging out an already-dead token is fine.
	require.NoError(t, env.auth.Logout(ctx, reg.RefreshToken))
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "reader@pothpath.test",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	user, claims, err := env.auth.VerifyAccessToken(ctx, reg.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, user.ID)
	assert.Equal(t, reg.User.ID, claims.UserID)
	assert.Equal(t, reg.User.Email, claims.Email)

	_, _, err = env.auth.VerifyAccessToken(ctx, "v4.local.garbage")
	require.Error(t, err)
}

func TestAuthService_IsAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "admin@pothpath.test",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	reader, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "reader@pothpath.test",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	assert.True(t, env.auth.IsAdmin(admin.User))
	assert.False(t, env.auth.IsAdmin(reader.User))
	assert.False(t, env.auth.IsAdmin(nil))
}

func TestAuthService_LogoutAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "reader@pothpath.test",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	login, err := env.auth.Login(ctx, LoginRequest{
		Email:    "reader@pothpath.test",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	require.NoError(t, env.auth.LogoutAll(ctx, reg.User.ID))

	_, err = env.auth.Refresh(ctx, RefreshRequest{RefreshToken: reg.RefreshToken})
	require.Error(t, err)
	_, err = env.auth.Refresh(ctx, RefreshRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
}
