package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pothpath/pothpath-server/internal/domain"
	"github.com/pothpath/pothpath-server/internal/store/sqlite"
)

// StatsService computes library-wide statistics for the admin dashboard.
type StatsService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(store *sqlite.Store, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:  store,
		logger: logger,
	}
}

// GenreCount pairs a genre with its approved book count.
type GenreCount struct {
	GenreID string `json:"genre_id"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
}

// LibraryStats summarizes the whole catalog.
type LibraryStats struct {
	TotalBooks     int          `json:"total_books"`
	PendingBooks   int          `json:"pending_books"`
	ApprovedBooks  int          `json:"approved_books"`
	RejectedBooks  int          `json:"rejected_books"`
	ArchivedBooks  int          `json:"archived_books"`
	TotalUsers     int          `json:"total_users"`
	TotalDownloads int64        `json:"total_downloads"`
	TotalViews     int64        `json:"total_views"`
	TotalFileBytes int64        `json:"total_file_bytes"`
	// ApprovalRate is approved / (approved + rejected), 0 when nothing
	// has been reviewed yet.
	ApprovalRate float64      `json:"approval_rate"`
	ByGenre      []GenreCount `json:"by_genre"`
	// Activity over trailing windows, from the event tables rather than
	// the lifetime counters.
	DownloadsLast7Days  int64 `json:"downloads_last_7_days"`
	DownloadsLast30Days int64 `json:"downloads_last_30_days"`
	ViewsLast7Days      int64 `json:"views_last_7_days"`
	ViewsLast30Days     int64 `json:"views_last_30_days"`
}

// GetLibraryStats reduces the catalog into dashboard numbers. Genres
// with no approved books are omitted from the per-genre breakdown.
func (s *StatsService) GetLibraryStats(ctx context.Context) (*LibraryStats, error) {
	books, err := s.store.ListAllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	stats := &LibraryStats{TotalBooks: len(books)}
	approvedByGenre := make(map[string]int)

	for _, b := range books {
		switch b.Status {
		case domain.BookStatusPending:
			stats.PendingBooks++
		case domain.BookStatusApproved:
			stats.ApprovedBooks++
			approvedByGenre[b.GenreID]++
		case domain.BookStatusRejected:
			stats.RejectedBooks++
		case domain.BookStatusArchived:
			stats.ArchivedBooks++
		}
		stats.TotalDownloads += b.DownloadCount
		stats.TotalViews += b.ViewCount
		stats.TotalFileBytes += b.FileSize
	}

	// Archived books were approved once, so they count toward the rate.
	reviewed := stats.ApprovedBooks + stats.ArchivedBooks + stats.RejectedBooks
	if reviewed > 0 {
		stats.ApprovalRate = float64(stats.ApprovedBooks+stats.ArchivedBooks) / float64(reviewed)
	}

	stats.TotalUsers, err = s.store.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	if err := s.fillGenreBreakdown(ctx, stats, approvedByGenre); err != nil {
		return nil, err
	}
	if err := s.fillActivityWindows(ctx, stats); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *StatsService) fillGenreBreakdown(ctx context.Context, stats *LibraryStats, approvedByGenre map[string]int) error {
	genres, err := s.store.ListGenres(ctx, false)
	if err != nil {
		return fmt.Errorf("list genres: %w", err)
	}

	names := make(map[string]string, len(genres))
	for _, g := range genres {
		names[g.ID] = g.Name
	}

	for genreID, count := range approvedByGenre {
		name := names[genreID]
		if genreID == "" {
			name = domain.UncategorizedName
		}
		stats.ByGenre = append(stats.ByGenre, GenreCount{
			GenreID: genreID,
			Name:    name,
			Count:   count,
		})
	}

	// Largest first, name as a stable tiebreak.
	sort.Slice(stats.ByGenre, func(i, j int) bool {
		if stats.ByGenre[i].Count != stats.ByGenre[j].Count {
			return stats.ByGenre[i].Count > stats.ByGenre[j].Count
		}
		return stats.ByGenre[i].Name < stats.ByGenre[j].Name
	})

	return nil
}

func (s *StatsService) fillActivityWindows(ctx context.Context, stats *LibraryStats) error {
	now := time.Now()
	windows := []struct {
		since     time.Time
		downloads *int64
		views     *int64
	}{
		{now.AddDate(0, 0, -7), &stats.DownloadsLast7Days, &stats.ViewsLast7Days},
		{now.AddDate(0, 0, -30), &stats.DownloadsLast30Days, &stats.ViewsLast30Days},
	}

	for _, w := range windows {
		downloads, err := s.store.CountDownloadsSince(ctx, w.since)
		if err != nil {
			return fmt.Errorf("count downloads: %w", err)
		}
		*w.downloads = downloads

		views, err := s.store.CountViewsSince(ctx, w.since)
		if err != nil {
			return fmt.Errorf("count views: %w", err)
		}
		*w.views = views
	}

	return nil
}
