package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"blog-server/internal/models"
)

// RegisterInput carries the body fields of the registration request.
type RegisterInput struct {
	Username string
	FullName string
	Email    string
	Password string
}

// Upload is a file received from a multipart request, destined for the
// blob store.
type Upload struct {
	Content     io.Reader
	ContentType string
}

// AuthService validates credentials, issues access/refresh tokens and
// verifies tokens on incoming requests.
type AuthService interface {
	// Register creates a new user. Аватар обязателен, обложка — нет;
	// оба файла загружаются в blob store до создания записи.
	Register(ctx context.Context, input RegisterInput, avatar, cover *Upload) (*models.User, error)
	// Login authenticates by username or email and returns the
	// sanitized user plus a fresh token pair. The refresh token is
	// persisted on the user record.
	Login(ctx context.Context, usernameOrEmail, password string) (*models.User, *models.TokenDetails, error)
	// Logout clears the stored refresh token. Best-effort: a missing
	// user record is not an error.
	Logout(ctx context.Context, userID uuid.UUID) error
	// Refresh mints a new token pair from a valid, non-revoked refresh
	// token and rotates the stored copy.
	Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	// VerifyAccessToken is the request gate used by the auth middleware.
	VerifyAccessToken(ctx context.Context, token string) (*models.Claims, error)
}
