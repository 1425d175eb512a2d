package sqlite

import (
	"context"
	"time"

	"github.com/pothpath/pothpath-server/internal/domain"
)

// ListAllBooks returns every book row ordered by creation time.
// Feeds the stats aggregation, which reduces over the whole collection.
func (s *Store) ListAllBooks(ctx context.Context) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// CountDownloadsSince returns the number of download events recorded at
// or after the cutoff.
func (s *Store) CountDownloadsSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM book_downloads WHERE occurred_at >= ?`,
		formatTime(since)).Scan(&n)
	return n, err
}

// CountViewsSince returns the number of view events recorded at or
// after the cutoff.
func (s *Store) CountViewsSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM book_views WHERE occurred_at >= ?`,
		formatTime(since)).Scan(&n)
	return n, err
}
