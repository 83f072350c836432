package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"blog-server/internal/models"
	"blog-server/internal/repository"
)

// In-memory фейки репозиториев и blob-хранилища для unit-тестов сервисов.

type fakeUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

var _ repository.UserRepository = (*fakeUserRepository)(nil)

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[uuid.UUID]*models.User)}
}

func (r *fakeUserRepository) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return models.ErrEmailAlreadyExists
		}
		if existing.Username == user.Username {
			return models.ErrUserAlreadyExists
		}
	}
	user.ID = uuid.New()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepository) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepository) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (r *fakeUserRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (r *fakeUserRepository) SetRefreshToken(_ context.Context, userID uuid.UUID, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	if token == nil {
		user.RefreshToken = nil
		return nil
	}
	copied := *token
	user.RefreshToken = &copied
	return nil
}

func (r *fakeUserRepository) UpdatePasswordHash(_ context.Context, userID uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepository) ListUsers(_ context.Context, filter repository.UserFilter, offset, limit int) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []models.User
	for _, user := range r.users {
		if filter.Username != "" && !strings.Contains(user.Username, strings.ToLower(filter.Username)) {
			continue
		}
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		copied := *user
		copied.PasswordHash = ""
		copied.RefreshToken = nil
		matched = append(matched, copied)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// storedRefreshToken возвращает сохраненный refresh-токен пользователя
// (nil = отозван).
func (r *fakeUserRepository) storedRefreshToken(userID uuid.UUID) *string {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok || user.RefreshToken == nil {
		return nil
	}
	copied := *user.RefreshToken
	return &copied
}

type fakeBlobStore struct {
	mu      sync.Mutex
	uploads int
	// failWith, если задана, возвращается из Upload вместо URL —
	// для проверки веток с недоступным хранилищем.
	failWith error
}

func (s *fakeBlobStore) Upload(_ context.Context, folder, _ string, body io.Reader) (string, error) {
	s.mu.Lock()
	failWith := s.failWith
	s.mu.Unlock()
	if failWith != nil {
		return "", failWith
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	return fmt.Sprintf("https://blobs.test/%s/%d", folder, s.uploads), nil
}

type fakeBlogRepository struct {
	mu    sync.Mutex
	blogs map[string]*models.Blog // ключ — slug
}

var _ repository.BlogRepository = (*fakeBlogRepository)(nil)

func newFakeBlogRepository() *fakeBlogRepository {
	return &fakeBlogRepository{blogs: make(map[string]*models.Blog)}
}

func (r *fakeBlogRepository) CreateBlog(_ context.Context, blog *models.Blog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.blogs[blog.Slug]; exists {
		return models.ErrSlugAlreadyExists
	}
	blog.ID = uuid.New()
	stored := *blog
	r.blogs[blog.Slug] = &stored
	return nil
}

func (r *fakeBlogRepository) GetBySlug(_ context.Context, slug string) (*models.Blog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	blog, ok := r.blogs[slug]
	if !ok {
		return nil, models.ErrBlogNotFound
	}
	copied := *blog
	return &copied, nil
}

func (r *fakeBlogRepository) UpdateBySlug(_ context.Context, slug string, patch models.BlogPatch, newSlug *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	blog, ok := r.blogs[slug]
	if !ok {
		return models.ErrBlogNotFound
	}
	if patch.Title != nil {
		blog.Title = *patch.Title
	}
	if patch.Content != nil {
		blog.Content = *patch.Content
	}
	if patch.ImageURL != nil {
		blog.ImageURL = *patch.ImageURL
	}
	if patch.Status != nil {
		blog.Status = *patch.Status
	}
	if newSlug != nil {
		if _, exists := r.blogs[*newSlug]; exists {
			return models.ErrSlugAlreadyExists
		}
		delete(r.blogs, slug)
		blog.Slug = *newSlug
		r.blogs[*newSlug] = blog
	}
	return nil
}

func (r *fakeBlogRepository) UpdateStatus(_ context.Context, slug string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	blog, ok := r.blogs[slug]
	if !ok {
		return models.ErrBlogNotFound
	}
	blog.Status = status
	return nil
}

func (r *fakeBlogRepository) DeleteBySlug(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blogs[slug]; !ok {
		return models.ErrBlogNotFound
	}
	delete(r.blogs, slug)
	return nil
}

func (r *fakeBlogRepository) ListBlogs(_ context.Context, filter repository.BlogFilter, offset, limit int) ([]models.Blog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []models.Blog
	for _, blog := range r.blogs {
		if filter.Title != "" && !strings.Contains(strings.ToLower(blog.Title), strings.ToLower(filter.Title)) {
			continue
		}
		matched = append(matched, *blog)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}
