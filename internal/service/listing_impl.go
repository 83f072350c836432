package service

import (
	"context"

	"go.uber.org/zap"

	"blog-server/internal/models"
	"blog-server/internal/repository"
)

// Compile-time check to ensure listingServiceImpl implements ListingService
var _ ListingService = (*listingServiceImpl)(nil)

type listingServiceImpl struct {
	userRepo repository.UserRepository
	blogRepo repository.BlogRepository
	logger   *zap.Logger
}

// NewListingService creates a new instance of listingServiceImpl.
func NewListingService(userRepo repository.UserRepository, blogRepo repository.BlogRepository, logger *zap.Logger) ListingService {
	return &listingServiceImpl{
		userRepo: userRepo,
		blogRepo: blogRepo,
		logger:   logger.Named("ListingService"),
	}
}

// ListUsers returns a page of users matching the filter. Креденшалы
// отфильтрованы репозиторием независимо от параметров.
func (s *listingServiceImpl) ListUsers(ctx context.Context, filter repository.UserFilter, page, limit int) (*models.UserPage, error) {
	page, limit, offset := normalizePagination(page, limit)
	s.logger.Debug("Listing users",
		zap.String("username", filter.Username),
		zap.String("role", filter.Role),
		zap.Int("page", page),
		zap.Int("limit", limit),
	)

	users, total, err := s.userRepo.ListUsers(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}

	return &models.UserPage{
		Users:      users,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// ListBlogs returns a page of blogs with author summaries embedded.
func (s *listingServiceImpl) ListBlogs(ctx context.Context, filter repository.BlogFilter, page, limit int) (*models.BlogPage, error) {
	page, limit, offset := normalizePagination(page, limit)
	s.logger.Debug("Listing blogs",
		zap.String("title", filter.Title),
		zap.Int("page", page),
		zap.Int("limit", limit),
	)

	blogs, total, err := s.blogRepo.ListBlogs(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}

	return &models.BlogPage{
		Blogs:      blogs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}
