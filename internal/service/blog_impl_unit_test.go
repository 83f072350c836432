package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blog-server/internal/models"
)

func newTestBlogService(t *testing.T) (BlogService, *fakeBlogRepository) {
	t.Helper()
	repo := newFakeBlogRepository()
	return NewBlogService(repo, zap.NewNop()), repo
}

func authorClaims() *models.Claims {
	return &models.Claims{UserID: uuid.New(), Role: models.RoleUser}
}

func TestCreateBlogValidation(t *testing.T) {
	svc, _ := newTestBlogService(t)
	ctx := context.Background()
	actor := authorClaims()

	_, err := svc.Create(ctx, "", "some content", actor)
	assert.ErrorIs(t, err, models.ErrInvalidInput, "empty title should be rejected")

	_, err = svc.Create(ctx, "A Title", "   ", actor)
	assert.ErrorIs(t, err, models.ErrInvalidInput, "blank content should be rejected")
}

func TestCreateBlogDefaults(t *testing.T) {
	svc, _ := newTestBlogService(t)
	ctx := context.Background()
	actor := authorClaims()

	blog, err := svc.Create(ctx, "  Hello World  ", "content body", actor)
	require.NoError(t, err)

	assert.Equal(t, "Hello World", blog.Title, "title should be trimmed")
	assert.Equal(t, models.BlogStatusDraft, blog.Status, "new blogs start as drafts")
	assert.Equal(t, actor.UserID, blog.AuthorID)
	assert.True(t, strings.HasPrefix(blog.Slug, "hello-world-"), "slug should derive from the title, got %q", blog.Slug)
}

func TestCreateBlogSlugsAreUnique(t *testing.T) {
	svc, _ := newTestBlogService(t)
	ctx := context.Background()
	actor := authorClaims()

	first, err := svc.Create(ctx, "Same Title", "content one", actor)
	require.NoError(t, err)
	second, err := svc.Create(ctx, "Same Title", "content two", actor)
	require.NoError(t, err)

	// Одинаковый заголовок — разные слаги
	assert.NotEqual(t, first.Slug, second.Slug)
}

func TestUpdateBlogTitleRegeneratesSlug(t *testing.T) {
	svc, _ := newTestBlogService(t)
	ctx := context.Background()
	actor := authorClaims()

	blog, err := svc.Create(ctx, "Old Title", "content", actor)
	require.NoError(t, err)
	oldSlug := blog.Slug

	newTitle := "Brand New Title"
	updated, err := svc.UpdateBySlug(ctx, oldSlug, models.BlogPatch{Title: &newTitle}, actor)
	require.NoError(t, err)

	assert.Equal(t, newTitle, updated.Title)
	assert.True(t, strings.HasPrefix(updated.Slug, "brand-new-title-"), "slug должен следовать за новым title, got %q", updated.Slug)
	assert.NotEqual(t, oldSlug, updated.Slug)

	// Старый slug больше не существует
	_, err = svc.GetBySlug(ctx, oldSlug)
	assert.ErrorIs(t, err, models.ErrBlogNotFound)

	// Новый — возвращает блог
	fetched, err := svc.GetBySlug(ctx, updated.Slug)
	require.NoError(t, err)
	assert.Equal(t, blog.ID, fetched.ID)
}

func TestUpdateBlogContentKeepsSlug(t *testing.T) {
	svc, _ := newTestBlogService(t)
	ctx := context.Background()
	actor := authorClaims()

	blog, err := svc.Create(ctx, "Stable Title", "old content", actor)
	require.NoError(t, err)

	newContent := "new content"
	updated, err := svc.UpdateBySlug(ctx, blog.Slug, models.BlogPatch{Content: &newContent}, actor)
	require.NoError(t, err)

	assert.Equal(t, blog.Slug, updated.Slug, "content change must not regenerate the slug")
	assert.Equal(t, newContent, updated.Content)
}

func TestUpdateBlogValidation(t *testing.T) {
	svc, _ := newTestBlogService(t)
	ctx := context.Background()
	actor := authorClaims()

	blog, err := svc.Create(ctx, "Title", "content", actor)
	require.NoError(t, err)

	badStatus := "archived"
	_, err = svc.UpdateBySlug(ctx, blog.Slug, models.BlogPatch{Status: &badStatus}, actor)
	assert.ErrorIs(t, err, models.ErrInvalidInput, "unknown status should be rejected")

	blankTitle := "   "
	_, err = svc.UpdateBySlug(ctx, blog.Slug, models.BlogPatch{Title: &blankTitle}, actor)
	assert.ErrorIs(t, err, models.ErrInvalidInput, "blank title should be rejected")
}

func TestUpdateStatus(t *testing.T) {
	svc, _ := newTestBlogService(t)
	ctx := context.Background()
	actor := authorClaims()

	blog, err := svc.Create(ctx, "Title", "content", actor)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdateStatus(ctx, blog.Slug, "bogus", actor), models.ErrInvalidInput)

	require.NoError(t, svc.UpdateStatus(ctx, blog.Slug, models.BlogStatusPublished, actor))
	fetched, err := svc.GetBySlug(ctx, blog.Slug)
	require.NoError(t, err)
	assert.Equal(t, models.BlogStatusPublished, fetched.Status)
}

func TestBlogMutationAuthorization(t *testing.T) {
	svc, _ := newTestBlogService(t)
	ctx := context.Background()
	author := authorClaims()
	stranger := authorClaims()
	admin := &models.Claims{UserID: uuid.New(), Role: models.RoleAdmin}

	blog, err := svc.Create(ctx, "Protected Post", "content", author)
	require.NoError(t, err)

	newContent := "hijacked"
	// Чужой пользователь не может трогать блог
	_, err = svc.UpdateBySlug(ctx, blog.Slug, models.BlogPatch{Content: &newContent}, stranger)
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.ErrorIs(t, svc.UpdateStatus(ctx, blog.Slug, models.BlogStatusPublished, stranger), models.ErrForbidden)
	assert.ErrorIs(t, svc.RemoveBySlug(ctx, blog.Slug, stranger), models.ErrForbidden)

	// Администратор — может
	require.NoError(t, svc.UpdateStatus(ctx, blog.Slug, models.BlogStatusPublished, admin))
	require.NoError(t, svc.RemoveBySlug(ctx, blog.Slug, admin))

	_, err = svc.GetBySlug(ctx, blog.Slug)
	assert.ErrorIs(t, err, models.ErrBlogNotFound)
}

func TestRemoveBySlugNotFound(t *testing.T) {
	svc, _ := newTestBlogService(t)
	ctx := context.Background()

	err := svc.RemoveBySlug(ctx, "missing-slug", authorClaims())
	assert.ErrorIs(t, err, models.ErrBlogNotFound)
}
