package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы публикации блога.
const (
	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
)

// IsValidBlogStatus reports whether s is one of the allowed status values.
func IsValidBlogStatus(s string) bool {
	return s == BlogStatusDraft || s == BlogStatusPublished
}

// Blog represents a blog post in the content store.
type Blog struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Title    string    `db:"title" json:"title"`
	Slug     string    `db:"slug" json:"slug"`
	AuthorID uuid.UUID `db:"author_id" json:"authorId"`
	Content  string    `db:"content" json:"content"`
	ImageURL string    `db:"image_url" json:"image,omitempty"`
	Status   string    `db:"status" json:"status"`
	// Author заполняется только при выборках с JOIN на users.
	Author    *AuthorSummary `db:"-" json:"author,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

// BlogPatch describes a partial update applied by UpdateBySlug.
// Nil fields are left untouched.
type BlogPatch struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	ImageURL *string `json:"image,omitempty"`
	Status   *string `json:"status,omitempty"`
}
