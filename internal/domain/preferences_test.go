package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreferencesKey(t *testing.T) {
	assert.Equal(t, "user-123:prefs", PreferencesKey("user-123"))
}

func TestNewPreferences(t *testing.T) {
	prefs := NewPreferences("user-123")

	assert.Equal(t, "user-123", prefs.UserID)
	assert.Empty(t, prefs.Favorites)
	assert.NotNil(t, prefs.Bookmarks)
	assert.Equal(t, ViewModeGrid, prefs.ViewMode)
	assert.False(t, prefs.UpdatedAt.IsZero())
}

func TestPreferences_Favorites(t *testing.T) {
	prefs := NewPreferences("user-123")

	assert.True(t, prefs.AddFavorite("book-1"))
	assert.True(t, prefs.AddFavorite("book-2"))
	assert.False(t, prefs.AddFavorite("book-1"), "adding twice is a no-op")

	assert.True(t, prefs.IsFavorite("book-1"))
	assert.Equal(t, []string{"book-1", "book-2"}, prefs.Favorites, "insertion order preserved")

	assert.True(t, prefs.RemoveFavorite("book-1"))
	assert.False(t, prefs.RemoveFavorite("book-1"), "removing twice is a no-op")
	assert.Equal(t, []string{"book-2"}, prefs.Favorites)
}

func TestPreferences_SetBookmark(t *testing.T) {
	prefs := NewPreferences("user-123")

	prefs.SetBookmark("book-1", 42)
	assert.Equal(t, 42, prefs.Bookmarks["book-1"])

	prefs.SetBookmark("book-1", 0)
	_, exists := prefs.Bookmarks["book-1"]
	assert.False(t, exists, "page zero clears the bookmark")
}

func TestPreferences_SetBookmark_NilMap(t *testing.T) {
	// Decoded preferences may arrive with a nil map.
	prefs := &Preferences{UserID: "user-123"}

	prefs.SetBookmark("book-1", 7)
	assert.Equal(t, 7, prefs.Bookmarks["book-1"])
}
