package domain

// UncategorizedName is shown for books whose genre was deleted or never set.
const UncategorizedName = "Uncategorized"

// Genre represents a category for classifying books.
// The taxonomy is flat: every genre is a top-level shelf.
type Genre struct {
	Record
	Name        string `json:"name"`                  // Display name: "Science Fiction"
	Slug        string `json:"slug"`                  // URL-safe key: "science-fiction"
	Description string `json:"description,omitempty"` // Optional description
	Color       string `json:"color,omitempty"`       // Hex color for UI badges
	SortOrder   int    `json:"sort_order"`            // Manual ordering in the genre list
	IsActive    bool   `json:"is_active"`             // Inactive genres are hidden from browse filters
	BookCount   int    `json:"book_count,omitempty"`  // Approved books in this genre, filled by queries
}

// DisplayNameFor returns the genre's name, or the uncategorized fallback
// when g is nil.
func DisplayNameFor(g *Genre) string {
	if g == nil || g.Name == "" {
		return UncategorizedName
	}
	return g.Name
}
