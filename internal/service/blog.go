package service

import (
	"context"

	"blog-server/internal/models"
)

// BlogService implements slug-addressed blog content operations.
// Мутации требуют, чтобы actor был автором блога или администратором.
type BlogService interface {
	Create(ctx context.Context, title, content string, actor *models.Claims) (*models.Blog, error)
	GetBySlug(ctx context.Context, slug string) (*models.Blog, error)
	UpdateBySlug(ctx context.Context, slug string, patch models.BlogPatch, actor *models.Claims) (*models.Blog, error)
	UpdateStatus(ctx context.Context, slug, status string, actor *models.Claims) error
	RemoveBySlug(ctx context.Context, slug string, actor *models.Claims) error
}
