package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pothpath/pothpath-server/internal/domain"
	"github.com/pothpath/pothpath-server/internal/store"
)

// genreColumns is the ordered list of columns selected in genre queries.
// Must match the scan order in scanGenre.
const genreColumns = `id, created_at, updated_at, name, slug, description,
	color, sort_order, is_active`

// scanGenre scans a sql.Row (or sql.Rows via its Scan method) into a domain.Genre.
func scanGenre(scanner interface{ Scan(dest ...any) error }) (*domain.Genre, error) {
	var g domain.Genre

	var (
		createdAt   string
		updatedAt   string
		description sql.NullString
		color       sql.NullString
		isActive    int
	)

	err := scanner.Scan(
		&g.ID,
		&createdAt,
		&updatedAt,
		&g.Name,
		&g.Slug,
		&description,
		&color,
		&g.SortOrder,
		&isActive,
	)
	if err != nil {
		return nil, err
	}

	// Parse timestamps.
	g.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	g.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	// Optional strings.
	if description.Valid {
		g.Description = description.String
	}
	if color.Valid {
		g.Color = color.String
	}

	g.IsActive = isActive != 0

	return &g, nil
}

// CreateGenre inserts a new genre into the database.
// Returns store.ErrAlreadyExists if the genre name or slug already exists.
func (s *Store) CreateGenre(ctx context.Context, g *domain.Genre) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO genres (
			id, created_at, updated_at, name, slug, description,
			color, sort_order, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID,
		formatTime(g.CreatedAt),
		formatTime(g.UpdatedAt),
		g.Name,
		g.Slug,
		nullString(g.Description),
		nullString(g.Color),
		g.SortOrder,
		boolToInt(g.IsActive),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists.WithMessage("genre already exists")
		}
		return err
	}
	return nil
}

// GetGenre retrieves a genre by ID.
// Returns store.ErrNotFound if the genre does not exist.
func (s *Store) GetGenre(ctx context.Context, id string) (*domain.Genre, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+genreColumns+` FROM genres WHERE id = ?`, id)

	g, err := scanGenre(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound.WithMessage("genre not found")
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GetGenreBySlug retrieves a genre by slug.
// Returns store.ErrNotFound if the genre does not exist.
func (s *Store) GetGenreBySlug(ctx context.Context, slug string) (*domain.Genre, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+genreColumns+` FROM genres WHERE slug = ?`, slug)

	g, err := scanGenre(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound.WithMessage("genre not found")
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ListGenres returns genres sorted by sort_order, then name.
// When activeOnly is true, inactive genres are excluded.
func (s *Store) ListGenres(ctx context.Context, activeOnly bool) ([]*domain.Genre, error) {
	query := `SELECT ` + genreColumns + ` FROM genres`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY sort_order ASC, name COLLATE NOCASE ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var genres []*domain.Genre
	for rows.Next() {
		g, err := scanGenre(rows)
		if err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return genres, nil
}

// UpdateGenre performs a full row update on an existing genre.
// Returns store.ErrNotFound if the genre does not exist, or
// store.ErrAlreadyExists if the new name or slug collides.
func (s *Store) UpdateGenre(ctx context.Context, g *domain.Genre) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE genres SET
			updated_at = ?,
			name = ?,
			slug = ?,
			description = ?,
			color = ?,
			sort_order = ?,
			is_active = ?
		WHERE id = ?`,
		formatTime(g.UpdatedAt),
		g.Name,
		g.Slug,
		nullString(g.Description),
		nullString(g.Color),
		g.SortOrder,
		boolToInt(g.IsActive),
		g.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists.WithMessage("genre already exists")
		}
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("genre not found")
	}
	return nil
}

// DeleteGenre removes a genre. Books referencing it are detached to
// uncategorized in the same transaction, so no book ever points at a
// missing genre.
func (s *Store) DeleteGenre(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Detach books first so the foreign key never dangles.
	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET genre_id = NULL WHERE genre_id = ?`, id); err != nil {
		return fmt.Errorf("detach books: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM genres WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("genre not found")
	}

	return tx.Commit()
}
