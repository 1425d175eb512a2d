package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"fmt"
	"strings"
	"time"

	"github.com/pothpath/pothpath-server/internal/domain"
	"github.com/pothpath/pothpath-server/internal/search"
	"github.com/pothpath/pothpath-server/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, created_at, updated_at, title, author, description,
	file_url, file_path, file_size, genre_id, status, is_public,
	download_count, view_count, uploaded_by, approved_at, tags, version`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book

	var (
		createdAt  string
		updatedAt  string
		desc       sql.NullString
		genreID    sql.NullString
		status     string
		isPublic   int
		approvedAt sql.NullString
		tags       sql.NullString
	)

	err := scanner.Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
		&b.Title,
		&b.Author,
		&desc,
		&b.FileURL,
		&b.FilePath,
		&b.FileSize,
		&genreID,
		&status,
		&isPublic,
		&b.DownloadCount,
		&b.ViewCount,
		&b.UploadedBy,
		&approvedAt,
		&tags,
		&b.Version,
	)
	if err != nil {
		return nil, err
	}

	// Parse timestamps.
	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	b.ApprovedAt, err = parseNullableTime(approvedAt)
	if err != nil {
		return nil, err
	}

	// Optional string fields.
	if desc.Valid {
		b.Description = desc.String
	}
	if genreID.Valid {
		b.GenreID = genreID.String
	}

	b.Status = domain.BookStatus(status)
	b.IsPublic = isPublic != 0

	// Parse tags JSON array.
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &b.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
	}

	return &b, nil
}

// tagsJSON marshals a tag slice for storage. Nil and empty both store NULL.
func tagsJSON(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal tags: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// bookSearchText builds the case-folded blob the search LIKE runs against.
func bookSearchText(b *domain.Book) string {
	return search.Normalize(b.Title + " " + b.Author + " " + b.Description)
}

// CreateBook inserts a new book into the database.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	tags, err := tagsJSON(book.Tags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO books (
			id, created_at, updated_at, title, author, description,
			file_url, file_path, file_size, genre_id, status, is_public,
			download_count, view_count, uploaded_by, approved_at, tags,
			version, search_text
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
		book.Title,
		book.Author,
		nullString(book.Description),
		book.FileURL,
		book.FilePath,
		book.FileSize,
		nullString(book.GenreID),
		string(book.Status),
		boolToInt(book.IsPublic),
		book.DownloadCount,
		book.ViewCount,
		book.UploadedBy,
		nullTimeString(book.ApprovedAt),
		tags,
		book.Version,
		bookSearchText(book),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists.WithMessage("book already exists")
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return store.ErrInvalidInput.WithMessage("unknown genre")
		}
		return err
	}
	return nil
}

// GetBook retrieves a book by ID.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id)

	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound.WithMessage("book not found")
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBookByFileKey retrieves a book by its storage key. Used by the
// file serving route to map a requested file back to its catalog entry.
func (s *Store) GetBookByFileKey(ctx context.Context, key string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE file_path = ?`, key)

	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound.WithMessage("book not found")
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// buildBookFilter translates a BookQuery into a WHERE clause and args.
func buildBookFilter(q store.BookQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if q.VisibleOnly {
		conds = append(conds, `status = 'approved' AND is_public = 1`)
	} else if q.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, string(q.Status))
	}
	if q.GenreID != "" {
		conds = append(conds, `genre_id = ?`)
		args = append(args, q.GenreID)
	}
	if q.UploadedBy != "" {
		conds = append(conds, `uploaded_by = ?`)
		args = append(args, q.UploadedBy)
	}
	if pattern := search.LikePattern(q.Search); pattern != "" {
		conds = append(conds, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// bookOrderClause maps a sort key to SQL. Ties always break on
// created_at descending then id, so pages never shuffle between requests.
func bookOrderClause(sortKey string) string {
	switch sortKey {
	case store.SortOldest:
		return ` ORDER BY created_at ASC, id ASC`
	case store.SortTitleAZ:
		return ` ORDER BY title COLLATE NOCASE ASC, created_at DESC, id ASC`
	case store.SortPopular:
		return ` ORDER BY download_count DESC, created_at DESC, id ASC`
	default:
		return ` ORDER BY created_at DESC, id ASC`
	}
}

// ListBooks returns a filtered, sorted page of books.
// One extra row is fetched past the limit to compute HasMore, and the
// exact total comes from a COUNT over the same filter.
func (s *Store) ListBooks(ctx context.Context, q store.BookQuery) (*store.Page[*domain.Book], error) {
	q.Normalize()

	where, args := buildBookFilter(q)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}

	query := `SELECT ` + bookColumns + ` FROM books` + where + bookOrderClause(q.Sort) +
		` LIMIT ? OFFSET ?`
	queryArgs := append(args, q.Limit+1, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
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

	hasMore := len(books) > q.Limit
	if hasMore {
		books = books[:q.Limit]
	}

	return &store.Page[*domain.Book]{
		Items:   books,
		Total:   total,
		HasMore: hasMore,
	}, nil
}

// UpdateBook performs a full row update guarded by an optimistic version
// check. The stored version must equal book.Version; on success the row
// is written with version+1 and book.Version is bumped to match.
// Returns store.ErrVersionConflict when another writer got there first,
// or store.ErrNotFound if the book does not exist.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	tags, err := tagsJSON(book.Tags)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE books SET
			updated_at = ?,
			title = ?,
			author = ?,
			description = ?,
			file_url = ?,
			file_path = ?,
			file_size = ?,
			genre_id = ?,
			status = ?,
			is_public = ?,
			uploaded_by = ?,
			approved_at = ?,
			tags = ?,
			version = version + 1,
			search_text = ?
		WHERE id = ? AND version = ?`,
		formatTime(book.UpdatedAt),
		book.Title,
		book.Author,
		nullString(book.Description),
		book.FileURL,
		book.FilePath,
		book.FileSize,
		nullString(book.GenreID),
		string(book.Status),
		boolToInt(book.IsPublic),
		book.UploadedBy,
		nullTimeString(book.ApprovedAt),
		tags,
		bookSearchText(book),
		book.ID,
		book.Version,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return store.ErrInvalidInput.WithMessage("unknown genre")
		}
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Zero rows means either a stale version or a missing row.
		exists, err := s.BookExists(ctx, book.ID)
		if err != nil {
			return err
		}
		if exists {
			return store.ErrVersionConflict
		}
		return store.ErrNotFound.WithMessage("book not found")
	}

	book.Version++
	return nil
}

// SetBooksStatus moves every listed book to the given status in a single
// statement. Books whose current status does not permit the transition
// are skipped, not failed: the statement's WHERE enumerates the legal
// source statuses. Returns the number of books actually moved.
func (s *Store) SetBooksStatus(ctx context.Context, ids []string, target domain.BookStatus, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var fromStatuses []string
	switch target {
	case domain.BookStatusApproved:
		fromStatuses = []string{"pending", "archived"}
	case domain.BookStatusRejected:
		fromStatuses = []string{"pending"}
	case domain.BookStatusArchived:
		fromStatuses = []string{"approved"}
	default:
		return 0, store.ErrInvalidInput.WithMessage("invalid target status")
	}

	var approvedAt sql.NullString
	if target == domain.BookStatusApproved {
		approvedAt = sql.NullString{String: formatTime(now), Valid: true}
	}

	args := []any{string(target), approvedAt, formatTime(now)}
	for _, id := range ids {
		args = append(args, id)
	}
	for _, from := range fromStatuses {
		args = append(args, from)
	}

	query := `UPDATE books SET
			status = ?,
			approved_at = COALESCE(?, approved_at),
			updated_at = ?,
			version = version + 1
		WHERE id IN (?` + strings.Repeat(", ?", len(ids)-1) + `)
		AND status IN (?` + strings.Repeat(", ?", len(fromStatuses)-1) + `)`

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SetBookVisibility flips the public flag without touching anything else.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) SetBookVisibility(ctx context.Context, id string, isPublic bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE books SET is_public = ?, updated_at = ?, version = version + 1
		WHERE id = ?`,
		boolToInt(isPublic), formatTime(time.Now()), id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("book not found")
	}
	return nil
}

// IncrementDownloadCount bumps the counter atomically and records the
// download event for analytics.
func (s *Store) IncrementDownloadCount(ctx context.Context, bookID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE books SET download_count = download_count + 1 WHERE id = ?`, bookID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("book not found")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO book_downloads (book_id, user_id, occurred_at) VALUES (?, ?, ?)`,
		bookID, nullString(userID), formatTime(time.Now())); err != nil {
		return fmt.Errorf("record download: %w", err)
	}

	return tx.Commit()
}

// IncrementViewCount bumps the counter atomically and records the view
// event for analytics.
func (s *Store) IncrementViewCount(ctx context.Context, bookID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE books SET view_count = view_count + 1 WHERE id = ?`, bookID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("book not found")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO book_views (book_id, user_id, occurred_at) VALUES (?, ?, ?)`,
		bookID, nullString(userID), formatTime(time.Now())); err != nil {
		return fmt.Errorf("record view: %w", err)
	}

	return tx.Commit()
}

// DeleteBook removes a book row. The caller is responsible for deleting
// the stored file first.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("book not found")
	}
	return nil
}

// BookExists reports whether a book row exists.
func (s *Store) BookExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM books WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
