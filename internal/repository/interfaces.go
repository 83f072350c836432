package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"blog-server/internal/models"
)

// DBTX абстрагирует pgxpool.Pool / pgx.Tx, чтобы репозитории можно было
// использовать и внутри транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserFilter describes the optional filters of the user listing.
// Empty fields are ignored; non-empty ones are matched as literal,
// case-insensitive substrings.
type UserFilter struct {
	Username string
	Role     string
}

// BlogFilter describes the optional filters of the blog listing.
type BlogFilter struct {
	Title string
}

// UserRepository persists user identity and refresh-token state.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// SetRefreshToken stores the current session refresh token;
	// nil revokes it.
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error
	// ListUsers returns one page of users matching filter plus the total
	// count of matches before pagination.
	ListUsers(ctx context.Context, filter UserFilter, offset, limit int) ([]models.User, int64, error)
}

// BlogRepository persists blog posts.
type BlogRepository interface {
	CreateBlog(ctx context.Context, blog *models.Blog) error
	GetBySlug(ctx context.Context, slug string) (*models.Blog, error)
	// UpdateBySlug applies the patch in a single UPDATE. newSlug is set
	// together with the patched title when the title changes.
	UpdateBySlug(ctx context.Context, slug string, patch models.BlogPatch, newSlug *string) error
	UpdateStatus(ctx context.Context, slug string, status string) error
	DeleteBySlug(ctx context.Context, slug string) error
	// ListBlogs returns one page of blogs with embedded author summaries
	// plus the total count of matches before pagination.
	ListBlogs(ctx context.Context, filter BlogFilter, offset, limit int) ([]models.Blog, int64, error)
}
