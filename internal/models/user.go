package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей. Роль хранится одной строкой в колонке users.role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account in the credential store.
type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	FullName      string    `db:"full_name" json:"fullName"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"` // Не отдаем хеш пароля
	AvatarURL     string    `db:"avatar_url" json:"avatar"`
	CoverImageURL string    `db:"cover_image_url" json:"coverImage,omitempty"`
	Role          string    `db:"role" json:"role"`
	// RefreshToken хранит текущий refresh-токен сессии (NULL = отозван).
	RefreshToken *string   `db:"refresh_token" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// AuthorSummary is the public projection of a user embedded into blog
// responses. It deliberately carries no credential fields.
type AuthorSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar"`
}

// Summary returns the author projection for embedding.
func (u *User) Summary() *AuthorSummary {
	return &AuthorSummary{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}
