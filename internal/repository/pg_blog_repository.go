package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"blog-server/internal/models"
)

// Compile-time check to ensure pgBlogRepository implements BlogRepository
var _ BlogRepository = (*pgBlogRepository)(nil)

const blogFields = `b.id, b.title, b.slug, b.author_id, b.content, b.image_url, b.status, b.created_at, b.updated_at`

// Поля автора, встраиваемые в ответ. Креденшалы (password_hash,
// refresh_token) сюда не попадают.
const authorFields = `u.id, u.username, u.full_name, u.email, u.avatar_url`

type pgBlogRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgBlogRepository creates a new PostgreSQL-backed BlogRepository.
func NewPgBlogRepository(db DBTX, logger *zap.Logger) BlogRepository {
	return &pgBlogRepository{
		db:     db,
		logger: logger.Named("PgBlogRepo"),
	}
}

// CreateBlog inserts a new blog post. Уникальность slug обеспечивает БД.
func (r *pgBlogRepository) CreateBlog(ctx context.Context, blog *models.Blog) error {
	query := `INSERT INTO blogs (title, slug, author_id, content, image_url, status)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at, updated_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("slug", blog.Slug))

	err := r.db.QueryRow(ctx, query,
		blog.Title, blog.Slug, blog.AuthorID, blog.Content, blog.ImageURL, blog.Status,
	).Scan(&blog.ID, &blog.CreatedAt, &blog.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "blogs_slug_key" {
			r.logger.Warn("Attempted to create blog with duplicate slug", zap.String("slug", blog.Slug))
			return models.ErrSlugAlreadyExists
		}
		r.logger.Error("Failed to create blog in postgres", zap.Error(err), zap.String("slug", blog.Slug))
		return fmt.Errorf("failed to create blog in postgres: %w", err)
	}

	r.logger.Info("Blog created successfully", zap.String("blogID", blog.ID.String()), zap.String("slug", blog.Slug))
	return nil
}

func scanBlogWithAuthor(row pgx.Row) (*models.Blog, error) {
	blog := &models.Blog{}
	author := &models.AuthorSummary{}
	err := row.Scan(
		&blog.ID, &blog.Title, &blog.Slug, &blog.AuthorID, &blog.Content,
		&blog.ImageURL, &blog.Status, &blog.CreatedAt, &blog.UpdatedAt,
		&author.ID, &author.Username, &author.FullName, &author.Email, &author.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	blog.Author = author
	return blog, nil
}

// GetBySlug retrieves a blog by slug with the author summary embedded.
func (r *pgBlogRepository) GetBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	query := `SELECT ` + blogFields + `, ` + authorFields + `
	          FROM blogs b JOIN users u ON u.id = b.author_id
	          WHERE b.slug = $1`
	blog, err := scanBlogWithAuthor(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Blog not found by slug", zap.String("slug", slug))
			return nil, models.ErrBlogNotFound
		}
		r.logger.Error("Failed to get blog by slug from postgres", zap.Error(err), zap.String("slug", slug))
		return nil, fmt.Errorf("failed to get blog by slug from postgres: %w", err)
	}
	return blog, nil
}

// UpdateBySlug применяет частичное обновление одним UPDATE'ом.
// Если patch содержит новый title, новый slug передается вместе с ним и
// обновляется атомарно в том же операторе.
func (r *pgBlogRepository) UpdateBySlug(ctx context.Context, slug string, patch models.BlogPatch, newSlug *string) error {
	queryBase := "UPDATE blogs SET updated_at = CURRENT_TIMESTAMP"
	args := []any{}
	argID := 1

	if patch.Title != nil {
		queryBase += fmt.Sprintf(", title = $%d", argID)
		args = append(args, *patch.Title)
		argID++
	}
	if newSlug != nil {
		queryBase += fmt.Sprintf(", slug = $%d", argID)
		args = append(args, *newSlug)
		argID++
	}
	if patch.Content != nil {
		queryBase += fmt.Sprintf(", content = $%d", argID)
		args = append(args, *patch.Content)
		argID++
	}
	if patch.ImageURL != nil {
		queryBase += fmt.Sprintf(", image_url = $%d", argID)
		args = append(args, *patch.ImageURL)
		argID++
	}
	if patch.Status != nil {
		queryBase += fmt.Sprintf(", status = $%d", argID)
		args = append(args, *patch.Status)
		argID++
	}

	query := queryBase + fmt.Sprintf(" WHERE slug = $%d", argID)
	args = append(args, slug)

	r.logger.Debug("Executing update blog query", zap.String("query", query), zap.String("slug", slug))
	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "blogs_slug_key" {
			r.logger.Warn("Slug collision on blog update", zap.String("slug", slug))
			return models.ErrSlugAlreadyExists
		}
		r.logger.Error("Failed to update blog in postgres", zap.Error(err), zap.String("slug", slug))
		return fmt.Errorf("failed to update blog: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update non-existent blog", zap.String("slug", slug))
		return models.ErrBlogNotFound
	}

	r.logger.Info("Blog updated successfully", zap.String("slug", slug))
	return nil
}

// UpdateStatus sets the publication status of a blog.
func (r *pgBlogRepository) UpdateStatus(ctx context.Context, slug string, status string) error {
	query := `UPDATE blogs SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE slug = $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("slug", slug), zap.String("status", status))

	cmdTag, err := r.db.Exec(ctx, query, status, slug)
	if err != nil {
		r.logger.Error("Failed to update blog status in postgres", zap.Error(err), zap.String("slug", slug))
		return fmt.Errorf("failed to update blog status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update status of non-existent blog", zap.String("slug", slug))
		return models.ErrBlogNotFound
	}

	r.logger.Info("Blog status updated successfully", zap.String("slug", slug), zap.String("status", status))
	return nil
}

// DeleteBySlug removes a blog post.
func (r *pgBlogRepository) DeleteBySlug(ctx context.Context, slug string) error {
	query := `DELETE FROM blogs WHERE slug = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("slug", slug))

	cmdTag, err := r.db.Exec(ctx, query, slug)
	if err != nil {
		r.logger.Error("Failed to delete blog from postgres", zap.Error(err), zap.String("slug", slug))
		return fmt.Errorf("failed to delete blog: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to delete non-existent blog", zap.String("slug", slug))
		return models.ErrBlogNotFound
	}

	r.logger.Info("Blog deleted successfully", zap.String("slug", slug))
	return nil
}

// ListBlogs returns one page of blogs with author summaries and the total
// count of matches. Как и в листинге пользователей, total считается
// оконной функцией в том же запросе.
func (r *pgBlogRepository) ListBlogs(ctx context.Context, filter BlogFilter, offset, limit int) ([]models.Blog, int64, error) {
	query := `SELECT ` + blogFields + `, ` + authorFields + `, COUNT(*) OVER() AS total
	          FROM blogs b JOIN users u ON u.id = b.author_id`
	args := []any{}
	argID := 1

	if filter.Title != "" {
		query += fmt.Sprintf(` WHERE b.title ILIKE '%%' || $%d || '%%' ESCAPE '\'`, argID)
		args = append(args, EscapeLikePattern(filter.Title))
		argID++
	}

	query += fmt.Sprintf(" ORDER BY b.created_at DESC, b.id DESC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, limit, offset)

	r.logger.Debug("Executing query", zap.String("query", query), zap.Any("args", args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query blogs from postgres", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to query blogs: %w", err)
	}
	defer rows.Close()

	blogs := make([]models.Blog, 0)
	var total int64
	for rows.Next() {
		var blog models.Blog
		author := &models.AuthorSummary{}
		if err := rows.Scan(
			&blog.ID, &blog.Title, &blog.Slug, &blog.AuthorID, &blog.Content,
			&blog.ImageURL, &blog.Status, &blog.CreatedAt, &blog.UpdatedAt,
			&author.ID, &author.Username, &author.FullName, &author.Email, &author.AvatarURL,
			&total,
		); err != nil {
			r.logger.Error("Failed to scan blog row", zap.Error(err))
			return nil, 0, fmt.Errorf("failed to scan blog row: %w", err)
		}
		blog.Author = author
		blogs = append(blogs, blog)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating blog rows", zap.Error(err))
		return nil, 0, fmt.Errorf("error iterating blog rows: %w", err)
	}

	return blogs, total, nil
}
