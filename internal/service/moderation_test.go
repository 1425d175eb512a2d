package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pothpath/pothpath-server/internal/domain"
	domainerrors "github.com/pothpath/pothpath-server/internal/errors"
)

func TestModerationService_ApproveRejectArchive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uploader := registerUser(t, env, "uploader@pothpath.test")
	book := submitBook(t, env, uploader, "Queue Item")

	approved, err := env.moderation.Transition(ctx, book.ID, domain.BookStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.BookStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	archived, err := env.moderation.Transition(ctx, book.ID, domain.BookStatusArchived)
	require.NoError(t, err)
	assert.Equal(t, domain.BookStatusArchived, archived.Status)

	// An archived book can be restored to approved.
	restored, err := env.moderation.Transition(ctx, book.ID, domain.BookStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.BookStatusApproved, restored.Status)
}

func TestModerationService_IllegalTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uploader := registerUser(t, env, "uploader@pothpath.test")
	book := submitBook(t, env, uploader, "Stuck")

	// Pending cannot jump straight to archived.
	_, err := env.moderation.Transition(ctx, book.ID, domain.BookStatusArchived)
	require.Error(t, err)
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeConflict, domainErr.Code)

	// Nothing moves back to pending.
	_, err = env.moderation.Transition(ctx, book.ID, domain.BookStatusApproved)
	require.NoError(t, err)
	_, err = env.moderation.Transition(ctx, book.ID, domain.BookStatusPending)
	require.Error(t, err)

	// Unknown statuses are rejected outright.
	_, err = env.moderation.Transition(ctx, book.ID, domain.BookStatus("published"))
	require.Error(t, err)
}

func TestModerationService_ListByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uploader := registerUser(t, env, "uploader@pothpath.test")

	first := submitBook(t, env, uploader, "First In")
	second := submitBook(t, env, uploader, "Second In")
	_, err := env.moderation.Transition(ctx, second.ID, domain.BookStatusApproved)
	require.NoError(t, err)

	page, err := env.moderation.ListByStatus(ctx, domain.BookStatusPending, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, first.ID, page.Items[0].ID)

	_, err = env.moderation.ListByStatus(ctx, domain.BookStatus("bogus"), 0, 0)
	require.Error(t, err)
}

func TestModerationService_BulkTransition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uploader := registerUser(t, env, "uploader@pothpath.test")

	a := submitBook(t, env, uploader, "Bulk A")
	b := submitBook(t, env, uploader, "Bulk B")
	c := submitBook(t, env, uploader, "Bulk C")
	_, err := env.moderation.Transition(ctx, c.ID, domain.BookStatusApproved)
	require.NoError(t, err)

	// c is already approved, so only a and b move.
	moved, err := env.moderation.BulkTransition(ctx, BulkTransitionRequest{
		BookIDs: []string{a.ID, b.ID, c.ID},
		Status:  domain.BookStatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	// Bulk moves to pending are never allowed.
	_, err = env.moderation.BulkTransition(ctx, BulkTransitionRequest{
		BookIDs: []string{a.ID},
		Status:  domain.BookStatusPending,
	})
	require.Error(t, err)

	// An empty ID list fails validation.
	_, err = env.moderation.BulkTransition(ctx, BulkTransitionRequest{
		Status: domain.BookStatusApproved,
	})
	require.Error(t, err)
}

func TestModerationService_SetVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uploader := registerUser(t, env, "uploader@pothpath.test")
	book := submitBook(t, env, uploader, "Now You See Me")
	_, err := env.moderation.Transition(ctx, book.ID, domain.BookStatusApproved)
	require.NoError(t, err)

	hidden, err := env.moderation.SetVisibility(ctx, book.ID, false)
	require.NoError(t, err)
	assert.False(t, hidden.IsPublic)
	// Hiding does not touch the moderation status.
	assert.Equal(t, domain.BookStatusApproved, hidden.Status)

	page, err := env.books.Browse(ctx, BrowseRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	shown, err := env.moderation.SetVisibility(ctx, book.ID, true)
	require.NoError(t, err)
	assert.True(t, shown.IsPublic)
}

func TestModerationService_DeleteBook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uploader := registerUser(t, env, "uploader@pothpath.test")
	book := submitBook(t, env, uploader, "Condemned")

	require.NoError(t, env.moderation.DeleteBook(ctx, book.ID))
	assert.False(t, env.storage.Exists(book.FilePath))

	err := env.moderation.DeleteBook(ctx, book.ID)
	require.Error(t, err)
}
