package service

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pothpath/pothpath-server/internal/domain"
)

// approveBook pushes a freshly submitted book through moderation.
func approveBook(t *testing.T, env *testEnv, bookID string) *domain.Book {
	t.Helper()
	book, err := env.moderation.Transition(context.Background(), bookID, domain.BookStatusApproved)
	require.NoError(t, err)
	return book
}

func TestBookService_Browse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uploader := registerUser(t, env, "uploader@pothpath.test")

	genre, err := env.genres.CreateGenre(ctx, CreateGenreRequest{Name: "Fantasy"})
	require.NoError(t, err)

	dune := submitBook(t, env, uploader, "Dune")
	hobbit := submitBook(t, env, uploader, "The Hobbit")
	pending := submitBook(t, env, uploader, "Unreviewed")

	approveBook(t, env, dune.ID)
	approveBook(t, env, hobbit.ID)

	genreID := genre.ID
	_, err = env.uploads.UpdateBook(ctx, uploader, hobbit.ID, UpdateBookRequest{GenreID: &genreID})
	require.NoError(t, err)

	// Only approved, public books show up.
	page, err := env.books.Browse(ctx, BrowseRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Total)
	for _, b := range page.Items {
		assert.NotEqual(t, pending.ID, b.ID)
	}

	// Genre filter.
	page, err = env.books.Browse(ctx, BrowseRequest{GenreID: genre.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, hobbit.ID, page.Items[0].ID)

	// Search matches titles case-insensitively.
	page, err = env.books.Browse(ctx, BrowseRequest{Search: "DUNE"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, dune.ID, page.Items[0].ID)

	// Unknown sorts are rejected.
	_, err = env.books.Browse(ctx, BrowseRequest{Sort: "random"})
	require.Error(t, err)
}

func TestBookService_BrowsePagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uploader := registerUser(t, env, "uploader@pothpath.test")

	titles := []string{"Alpha", "Beta", "Gamma"}
	for _, title := range titles {
		b := submitBook(t, env, uploader, title)
		approveBook(t, env, b.ID)
	}

	page, err := env.books.Browse(ctx, BrowseRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasMore)

	page, err = env.books.Browse(ctx, BrowseRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasMore)
}

func TestBookService_GetBook_Visibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uploader := registerUser(t, env, "uploader@pothpath.test")
	stranger := registerUser(t, env, "stranger@pothpath.test")
	admin := registerUser(t, env, "admin@pothpath.test")
	book := submitBook(t, env, uploader, "Hidden Gem")

	// Pending: uploader and admin see it, a stranger and anonymous don't.
	got, err := env.books.GetBook(ctx, uploader, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ID, got.ID)

	_, err = env.books.GetBook(ctx, admin, book.ID)
	require.NoError(t, err)

	_, err = env.books.GetBook(ctx, stranger, book.ID)
	require.Error(t, err)
	_, err = env.books.GetBook(ctx, nil, book.ID)
	require.Error(t, err)

	// Approved and public: everyone sees it.
	approveBook(t, env, book.ID)
	_, err = env.books.GetBook(ctx, nil, book.ID)
	require.NoError(t, err)
}

func TestBookService_RecordView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uploader := registerUser(t, env, "uploader@pothpath.test")
	book := submitBook(t, env, uploader, "Watched")

	// Views on non-visible books are not counted.
	env.books.RecordView(ctx, uploader, book)
	got, err := env.books.GetBook(ctx, uploader, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.ViewCount)

	approved := approveBook(t, env, book.ID)
	env.books.RecordView(ctx, nil, approved)
	env.books.RecordView(ctx, uploader, approved)

	got, err = env.books.GetBook(ctx, nil, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ViewCount)
}

func TestBookService_Download(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uploader := registerUser(t, env, "uploader@pothpath.test")
	stranger := registerUser(t, env, "stranger@pothpath.test")
	book := submitBook(t, env, uploader, "Wanted")

	// Strangers cannot download a pending book.
	_, _, _, err := env.books.Download(ctx, stranger, book.ID)
	require.Error(t, err)

	// The uploader can, but it doesn't count as a download.
	_, reader, size, err := env.books.Download(ctx, uploader, book.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	assert.Equal(t, int64(len(data)), size)
	assert.Equal(t, pdfBytes("Wanted"), data)

	got, err := env.books.GetBook(ctx, uploader, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.DownloadCount)

	// Once approved, downloads count.
	approveBook(t, env, book.ID)
	_, reader, _, err = env.books.Download(ctx, nil, book.ID)
	require.NoError(t, err)
	require.NoError(t, reader.Close())

	got, err = env.books.GetBook(ctx, nil, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.DownloadCount)
}

func TestBookService_ListUserUploads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uploader := registerUser(t, env, "uploader@pothpath.test")
	other := registerUser(t, env, "other@pothpath.test")

	mine := submitBook(t, env, uploader, "Mine")
	submitBook(t, env, other, "Theirs")

	page, err := env.books.ListUserUploads(ctx, uploader.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine.ID, page.Items[0].ID)
}
