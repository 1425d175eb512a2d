package domain

import "time"

// ViewMode controls how the client renders the book list.
type ViewMode string

const (
	// ViewModeGrid shows cover tiles.
	ViewModeGrid ViewMode = "grid"
	// ViewModeList shows compact rows.
	ViewModeList ViewMode = "list"
)

// Preferences holds a user's reading preferences: favorites, per-book
// reading positions, and display settings. Stored as a single value in
// the preference store under the user's key.
type Preferences struct {
	UserID    string           `json:"user_id"`
	Favorites []string         `json:"favorites,omitempty"` // Book IDs, insertion order preserved
	Bookmarks map[string]int   `json:"bookmarks,omitempty"` // Book ID -> last page read
	ViewMode  ViewMode         `json:"view_mode,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// PreferencesKey generates the storage key: "userID:prefs".
func PreferencesKey(userID string) string {
	return userID + ":prefs"
}

// NewPreferences creates empty preferences (all defaults).
func NewPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:    userID,
		Bookmarks: make(map[string]int),
		ViewMode:  ViewModeGrid,
		UpdatedAt: time.Now(),
	}
}

// IsFavorite reports whether the book is in the user's favorites.
func (p *Preferences) IsFavorite(bookID string) bool {
	for _, id := range p.Favorites {
		if id == bookID {
			return true
		}
	}
	return false
}

// AddFavorite adds a book to the favorites list.
// Returns false if the book was already a favorite.
func (p *Preferences) AddFavorite(bookID string) bool {
	if p.IsFavorite(bookID) {
		return false
	}
	p.Favorites = append(p.Favorites, bookID)
	p.UpdatedAt = time.Now()
	return true
}

// RemoveFavorite removes a book from the favorites list.
// Returns false if the book was not a favorite.
func (p *Preferences) RemoveFavorite(bookID string) bool {
	for i, id := range p.Favorites {
		if id == bookID {
			p.Favorites = append(p.Favorites[:i], p.Favorites[i+1:]...)
			p.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// SetBookmark records the last page read for a book. A page of zero
// clears the bookmark.
func (p *Preferences) SetBookmark(bookID string, page int) {
	if p.Bookmarks == nil {
		p.Bookmarks = make(map[string]int)
	}
	if page <= 0 {
		delete(p.Bookmarks, bookID)
	} else {
		p.Bookmarks[bookID] = page
	}
	p.UpdatedAt = time.Now()
}
