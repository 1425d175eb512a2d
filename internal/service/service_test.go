package service

import (
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pothpath/pothpath-server/internal/auth"
	"github.com/pothpath/pothpath-server/internal/config"
	"github.com/pothpath/pothpath-server/internal/prefs"
	"github.com/pothpath/pothpath-server/internal/storage"
	"github.com/pothpath/pothpath-server/internal/store/sqlite"
	"github.com/pothpath/pothpath-server/internal/validation"
)

// testEnv wires real stores in a temp directory so service tests run
// against the same stack as production.
type testEnv struct {
	store     *sqlite.Store
	storage   *storage.Storage
	prefs     *prefs.Store
	tokens    *auth.TokenService
	validator *validation.Validator
	admins    config.AdminConfig
	logger    *slog.Logger

	auth       *AuthService
	books      *BookService
	uploads    *UploadService
	moderation *ModerationService
	genres     *GenreService
	stats      *StatsService
	prefsSvc   *PrefsService
	profile    *ProfileService

	// Created on first use by defaultGenre.
	genreID string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	s, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	objects, err := storage.NewStorage(filepath.Join(tmpDir, "objects"))
	require.NoError(t, err)

	prefsStore, err := prefs.Open(filepath.Join(tmpDir, "prefs"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = prefsStore.Close() })

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(hex.EncodeToString(authKey), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	validator := validation.New()
	admins := config.AdminConfig{Emails: []string{"admin@pothpath.test"}}

	env := &testEnv{
		store:     s,
		storage:   objects,
		prefs:     prefsStore,
		tokens:    tokens,
		validator: validator,
		admins:    admins,
		logger:    logger,
	}

	env.auth = NewAuthService(s, tokens, validator, admins, logger)
	env.books = NewBookService(s, objects, env.auth, logger)
	env.uploads = NewUploadService(s, objects, validator, env.auth, "http://localhost:8080", 50*1024*1024, logger)
	env.moderation = NewModerationService(s, objects, validator, logger)
	env.genres = NewGenreService(s, validator, logger)
	env.stats = NewStatsService(s, logger)
	env.prefsSvc = NewPrefsService(prefsStore, s, logger)
	env.profile = NewProfileService(s, validator, logger)

	return env
}

// pdfBytes returns a minimal payload that passes the PDF sniff.
func pdfBytes(filler string) []byte {
	return []byte("%PDF-1.4\n" + filler + "\n%%EOF\n")
}
