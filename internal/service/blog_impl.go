package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"blog-server/internal/models"
	"blog-server/internal/repository"
)

// Compile-time check to ensure blogServiceImpl implements BlogService
var _ BlogService = (*blogServiceImpl)(nil)

type blogServiceImpl struct {
	blogRepo repository.BlogRepository
	logger   *zap.Logger
}

// NewBlogService creates a new instance of blogServiceImpl.
func NewBlogService(blogRepo repository.BlogRepository, logger *zap.Logger) BlogService {
	return &blogServiceImpl{
		blogRepo: blogRepo,
		logger:   logger.Named("BlogService"),
	}
}

// Create validates input, derives a unique slug and inserts the blog.
func (s *blogServiceImpl) Create(ctx context.Context, title, content string, actor *models.Claims) (*models.Blog, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)

	log := s.logger.With(zap.String("authorID", actor.UserID.String()))
	log.Info("Creating blog", zap.String("title", title))

	if title == "" || content == "" {
		log.Warn("Blog creation attempt with missing title or content")
		return nil, fmt.Errorf("title and content are required: %w", models.ErrInvalidInput)
	}

	slug := GenerateSlug(title)

	// Быстрая проверка коллизии слага. Случайный суффикс делает ее
	// практически невозможной, но авторитетен все равно constraint БД.
	if _, err := s.blogRepo.GetBySlug(ctx, slug); err == nil {
		log.Warn("Slug collision detected before insert", zap.String("slug", slug))
		return nil, models.ErrSlugAlreadyExists
	} else if !errors.Is(err, models.ErrBlogNotFound) {
		log.Error("Error checking slug existence before insert", zap.Error(err), zap.String("slug", slug))
		return nil, fmt.Errorf("error checking slug existence: %w", err)
	}

	blog := &models.Blog{
		Title:    title,
		Slug:     slug,
		AuthorID: actor.UserID,
		Content:  content,
		Status:   models.BlogStatusDraft,
	}

	if err := s.blogRepo.CreateBlog(ctx, blog); err != nil {
		return nil, err
	}

	log.Info("Blog created", zap.String("blogID", blog.ID.String()), zap.String("slug", blog.Slug))
	return blog, nil
}

// GetBySlug returns one blog with its author summary embedded.
func (s *blogServiceImpl) GetBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	return s.blogRepo.GetBySlug(ctx, slug)
}

// UpdateBySlug applies a partial update. Смена title влечет регенерацию
// слага; оба поля обновляются атомарно вместе с остальным патчем.
func (s *blogServiceImpl) UpdateBySlug(ctx context.Context, slug string, patch models.BlogPatch, actor *models.Claims) (*models.Blog, error) {
	log := s.logger.With(zap.String("slug", slug), zap.String("actorID", actor.UserID.String()))
	log.Info("Updating blog")

	if patch.Status != nil && !models.IsValidBlogStatus(*patch.Status) {
		log.Warn("Blog update attempt with invalid status", zap.String("status", *patch.Status))
		return nil, fmt.Errorf("status must be draft or published: %w", models.ErrInvalidInput)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		log.Warn("Blog update attempt with blank title")
		return nil, fmt.Errorf("title must not be blank: %w", models.ErrInvalidInput)
	}

	blog, err := s.authorizeMutation(ctx, slug, actor)
	if err != nil {
		return nil, err
	}

	currentSlug := blog.Slug
	var newSlug *string
	if patch.Title != nil && *patch.Title != blog.Title {
		generated := GenerateSlug(*patch.Title)
		newSlug = &generated
	}

	if err := s.blogRepo.UpdateBySlug(ctx, currentSlug, patch, newSlug); err != nil {
		return nil, err
	}

	if newSlug != nil {
		currentSlug = *newSlug
		log.Info("Blog slug regenerated on title change", zap.String("newSlug", currentSlug))
	}
	return s.blogRepo.GetBySlug(ctx, currentSlug)
}

// UpdateStatus changes the publication status of a blog.
func (s *blogServiceImpl) UpdateStatus(ctx context.Context, slug, status string, actor *models.Claims) error {
	log := s.logger.With(zap.String("slug", slug), zap.String("actorID", actor.UserID.String()))

	if !models.IsValidBlogStatus(status) {
		log.Warn("Status update attempt with invalid status", zap.String("status", status))
		return fmt.Errorf("status must be draft or published: %w", models.ErrInvalidInput)
	}

	if _, err := s.authorizeMutation(ctx, slug, actor); err != nil {
		return err
	}

	if err := s.blogRepo.UpdateStatus(ctx, slug, status); err != nil {
		return err
	}

	log.Info("Blog status updated", zap.String("status", status))
	return nil
}

// RemoveBySlug deletes a blog post.
func (s *blogServiceImpl) RemoveBySlug(ctx context.Context, slug string, actor *models.Claims) error {
	log := s.logger.With(zap.String("slug", slug), zap.String("actorID", actor.UserID.String()))

	if _, err := s.authorizeMutation(ctx, slug, actor); err != nil {
		return err
	}

	if err := s.blogRepo.DeleteBySlug(ctx, slug); err != nil {
		return err
	}

	log.Info("Blog removed")
	return nil
}

// authorizeMutation loads the blog and ensures actor may mutate it:
// либо автор, либо администратор.
func (s *blogServiceImpl) authorizeMutation(ctx context.Context, slug string, actor *models.Claims) (*models.Blog, error) {
	blog, err := s.blogRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if blog.AuthorID != actor.UserID && actor.Role != models.RoleAdmin {
		s.logger.Warn("Blog mutation forbidden for non-author",
			zap.String("slug", slug),
			zap.String("actorID", actor.UserID.String()),
			zap.String("authorID", blog.AuthorID.String()),
		)
		return nil, models.ErrForbidden
	}
	return blog, nil
}
