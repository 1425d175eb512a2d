package domain

import "time"

// BookStatus represents where a book sits in the moderation pipeline.
type BookStatus string

const (
	// BookStatusPending indicates the book awaits moderator review.
	BookStatusPending BookStatus = "pending"
	// BookStatusApproved indicates the book passed review and may appear publicly.
	BookStatusApproved BookStatus = "approved"
	// BookStatusRejected indicates the book failed review.
	BookStatusRejected BookStatus = "rejected"
	// BookStatusArchived indicates the book was withdrawn after approval.
	BookStatusArchived BookStatus = "archived"
)

// ValidBookStatus reports whether s is one of the known statuses.
func ValidBookStatus(s BookStatus) bool {
	switch s {
	case BookStatusPending, BookStatusApproved, BookStatusRejected, BookStatusArchived:
		return true
	}
	return false
}

// Book represents an uploaded PDF book in the library.
type Book struct {
	Record
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Description   string     `json:"description,omitempty"`
	FileURL       string     `json:"file_url"`
	FilePath      string     `json:"file_path,omitempty"` // Storage key, filter from API responses
	FileSize      int64      `json:"file_size"`
	GenreID       string     `json:"genre_id,omitempty"` // Empty means uncategorized
	Status        BookStatus `json:"status"`
	IsPublic      bool       `json:"is_public"`
	DownloadCount int64      `json:"download_count"`
	ViewCount     int64      `json:"view_count"`
	UploadedBy    string     `json:"uploaded_by"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Version       int64      `json:"version"`
}

// Visible reports whether the book may be shown to non-moderators.
// Only approved, public books appear in the catalog.
func (b *Book) Visible() bool {
	return b.Status == BookStatusApproved && b.IsPublic
}

// CanTransitionTo reports whether the moderation pipeline permits moving
// the book from its current status to target. Transitions are single-hop:
// rejected is terminal, archived books can only be restored to approved,
// and nothing ever moves back to pending.
func (b *Book) CanTransitionTo(target BookStatus) bool {
	switch b.Status {
	case BookStatusPending:
		return target == BookStatusApproved || target == BookStatusRejected
	case BookStatusApproved:
		return target == BookStatusArchived
	case BookStatusRejected:
		return false
	case BookStatusArchived:
		return target == BookStatusApproved
	}
	return false
}

// Approve marks the book approved and stamps the approval time.
// Returns false if the current status does not permit approval.
func (b *Book) Approve(now time.Time) bool {
	if !b.CanTransitionTo(BookStatusApproved) {
		return false
	}
	b.Status = BookStatusApproved
	b.ApprovedAt = &now
	b.Touch()
	return true
}

// Reject marks the book rejected.
// Returns false if the current status does not permit rejection.
func (b *Book) Reject() bool {
	if !b.CanTransitionTo(BookStatusRejected) {
		return false
	}
	b.Status = BookStatusRejected
	b.Touch()
	return true
}

// Archive withdraws an approved book from the catalog.
// Returns false if the current status does not permit archiving.
func (b *Book) Archive() bool {
	if !b.CanTransitionTo(BookStatusArchived) {
		return false
	}
	b.Status = BookStatusArchived
	b.Touch()
	return true
}

// HasTag reports whether the book carries the given tag.
func (b *Book) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
