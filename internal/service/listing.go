package service

import (
	"context"

	"blog-server/internal/models"
	"blog-server/internal/repository"
)

// ListingService builds filtered, paginated result sets over the
// credential and content stores. Контракт страницы единый:
// {items, total, page, limit, totalPages}.
type ListingService interface {
	ListUsers(ctx context.Context, filter repository.UserFilter, page, limit int) (*models.UserPage, error)
	ListBlogs(ctx context.Context, filter repository.BlogFilter, page, limit int) (*models.BlogPage, error)
}
