// Package main provides a tool to seed the catalog with a starter set of genres.
//
// Usage:
//
//	DATA_PATH=~/pothpath go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pothpath/pothpath-server/internal/service"
	"github.com/pothpath/pothpath-server/internal/store"
	"github.com/pothpath/pothpath-server/internal/store/sqlite"
	"github.com/pothpath/pothpath-server/internal/validation"
)

var defaultGenres = []service.CreateGenreRequest{
	{Name: "Fiction", Description: "Novels and short stories", Color: "#4f86c6", SortOrder: 1},
	{Name: "Non-Fiction", Description: "Essays, history, and reportage", Color: "#6aa84f", SortOrder: 2},
	{Name: "Science Fiction", Description: "Futures near and far", Color: "#8e63ce", SortOrder: 3},
	{Name: "Fantasy", Description: "Other worlds and magic", Color: "#b45f8d", SortOrder: 4},
	{Name: "Mystery", Description: "Crime, detectives, and whodunits", Color: "#c0642f", SortOrder: 5},
	{Name: "Biography", Description: "Lives, memoirs, and letters", Color: "#a8903c", SortOrder: 6},
	{Name: "Science", Description: "Popular science and mathematics", Color: "#3c9da8", SortOrder: 7},
	{Name: "Technology", Description: "Computing and engineering", Color: "#5d6d7e", SortOrder: 8},
	{Name: "Poetry", Description: "Verse in every form", Color: "#c94f6d", SortOrder: 9},
	{Name: "Children", Description: "Picture books and early readers", Color: "#e2a33d", SortOrder: 10},
}

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/pothpath")
	}

	dbPath := filepath.Join(dataPath, "pothpath.db")
	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := sqlite.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	genres := service.NewGenreService(db, validation.New(), logger)
	ctx := context.Background()

	created := 0
	for _, req := range defaultGenres {
		genre, err := genres.CreateGenre(ctx, req)
		if err != nil {
			if store.IsAlreadyExists(err) {
				fmt.Printf("  exists: %s\n", req.Name)
				continue
			}
			log.Fatalf("Failed to create genre %q: %v", req.Name, err)
		}
		fmt.Printf("  created: %s (%s)\n", genre.Name, genre.Slug)
		created++
	}

	fmt.Printf("Done. %d genres created, %d already present.\n", created, len(defaultGenres)-created)
}
