package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"blog-server/internal/models"
)

// Compile-time check to ensure pgUserRepository implements UserRepository
var _ UserRepository = (*pgUserRepository)(nil)

const userFields = `id, username, full_name, email, password_hash, avatar_url, cover_image_url, role, refresh_token, created_at, updated_at`

type pgUserRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgUserRepository creates a new PostgreSQL-backed UserRepository.
func NewPgUserRepository(db DBTX, logger *zap.Logger) UserRepository {
	return &pgUserRepository{
		db:     db,
		logger: logger.Named("PgUserRepo"),
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.FullName, &user.Email, &user.PasswordHash,
		&user.AvatarURL, &user.CoverImageURL, &user.Role, &user.RefreshToken,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new user. Уникальность username/email обеспечивает
// сама БД; нарушение constraint'а мапится на доменную ошибку.
func (r *pgUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (username, email, full_name, password_hash, avatar_url, cover_image_url, role)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at, updated_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("username", user.Username), zap.String("email", user.Email))

	err := r.db.QueryRow(ctx, query,
		user.Username, user.Email, user.FullName, user.PasswordHash,
		user.AvatarURL, user.CoverImageURL, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 is unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			logFields := []zap.Field{zap.String("username", user.Username), zap.String("email", user.Email)}
			switch pgErr.ConstraintName {
			case "users_email_key":
				r.logger.Warn("Attempted to create duplicate user by email", logFields...)
				return models.ErrEmailAlreadyExists
			default:
				r.logger.Warn("Attempted to create duplicate user by username", append(logFields, zap.String("constraint", pgErr.ConstraintName))...)
				return models.ErrUserAlreadyExists
			}
		}
		r.logger.Error("Failed to create user in postgres", zap.Error(err), zap.String("username", user.Username))
		return fmt.Errorf("failed to create user in postgres: %w", err)
	}

	r.logger.Info("User created successfully", zap.String("userID", user.ID.String()), zap.String("username", user.Username))
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *pgUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userFields + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found by ID", zap.String("id", id.String()))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by id from postgres", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get user by id from postgres: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by their username.
func (r *pgUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userFields + ` FROM users WHERE username = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found by username", zap.String("username", username))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by username from postgres", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to get user by username from postgres: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email.
func (r *pgUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userFields + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Возвращаем ErrUserNotFound, а не специфичную для email ошибку,
			// чтобы вызывающий код обрабатывал отсутствие пользователя единообразно.
			r.logger.Debug("User not found by email", zap.String("email", email))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by email from postgres", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email from postgres: %w", err)
	}
	return user, nil
}

// SetRefreshToken stores or clears (nil) the current session refresh token.
func (r *pgUserRepository) SetRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error {
	query := `UPDATE users SET refresh_token = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", userID.String()), zap.Bool("revoke", token == nil))

	cmdTag, err := r.db.Exec(ctx, query, token, userID)
	if err != nil {
		r.logger.Error("Failed to update refresh token in postgres", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update refresh token for non-existent user", zap.String("userID", userID.String()))
		return models.ErrUserNotFound
	}
	return nil
}

// UpdatePasswordHash обновляет хеш пароля пользователя.
func (r *pgUserRepository) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", userID.String()))

	cmdTag, err := r.db.Exec(ctx, query, passwordHash, userID)
	if err != nil {
		r.logger.Error("Failed to update user password hash in postgres", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update password hash for non-existent user", zap.String("userID", userID.String()))
		return models.ErrUserNotFound
	}

	r.logger.Info("User password hash updated successfully", zap.String("userID", userID.String()))
	return nil
}

// ListUsers returns one page of users matching the filter and the total
// number of matches. Total считается в том же запросе оконной функцией
// COUNT(*) OVER(), до применения LIMIT/OFFSET.
func (r *pgUserRepository) ListUsers(ctx context.Context, filter UserFilter, offset, limit int) ([]models.User, int64, error) {
	query := `SELECT ` + userFields + `, COUNT(*) OVER() AS total FROM users`
	args := []any{}
	argID := 1
	conditions := []string{}

	if filter.Username != "" {
		conditions = append(conditions, fmt.Sprintf(`username ILIKE '%%' || $%d || '%%' ESCAPE '\'`, argID))
		args = append(args, EscapeLikePattern(filter.Username))
		argID++
	}
	if filter.Role != "" {
		conditions = append(conditions, fmt.Sprintf(`role ILIKE '%%' || $%d || '%%' ESCAPE '\'`, argID))
		args = append(args, EscapeLikePattern(filter.Role))
		argID++
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, limit, offset)

	r.logger.Debug("Executing query", zap.String("query", query), zap.Any("args", args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query users from postgres", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	var total int64
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID, &user.Username, &user.FullName, &user.Email, &user.PasswordHash,
			&user.AvatarURL, &user.CoverImageURL, &user.Role, &user.RefreshToken,
			&user.CreatedAt, &user.UpdatedAt, &total,
		); err != nil {
			r.logger.Error("Failed to scan user row", zap.Error(err))
			return nil, 0, fmt.Errorf("failed to scan user row: %w", err)
		}
		// Креденшалы никогда не покидают репозиторий при листинге.
		user.PasswordHash = ""
		user.RefreshToken = nil
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating user rows", zap.Error(err))
		return nil, 0, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, total, nil
}
