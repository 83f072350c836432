package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blog-server/internal/models"
	"blog-server/internal/repository"
)

// queryInt parses an integer query parameter, falling back to def.
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}

// @Summary Создание блога
// @Description Создает черновик блога от имени текущего пользователя
// @Tags blogs
// @Accept json
// @Produce json
// @Param request body createBlogRequest true "Заголовок и содержимое"
// @Success 201 {object} models.APIResponse "Созданный блог"
// @Failure 400 {object} models.ErrorResponse "Неверные данные запроса"
// @Failure 409 {object} models.ErrorResponse "Slug уже занят"
// @Security BearerAuth
// @Router /blogs/create [post]
func (h *Handler) createBlog(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		zap.L().Error("Claims missing in context during blog creation")
		handleServiceError(c, models.ErrUnauthorized)
		return
	}

	var req createBlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	blog, err := h.blogService.Create(c.Request.Context(), req.Title, req.Content, claims)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	blogsCreatedTotal.Inc()

	c.JSON(http.StatusCreated, models.APIResponse{
		Message: "Blog created successfully",
		Data:    blog,
	})
}

// @Summary Список блогов
// @Description Фильтрация по подстроке заголовка, с пагинацией
// @Tags blogs
// @Produce json
// @Param title query string false "Подстрока заголовка"
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} models.APIResponse "Страница блогов"
// @Router /blogs/list [get]
func (h *Handler) listBlogs(c *gin.Context) {
	filter := repository.BlogFilter{
		Title: c.Query("title"),
	}
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)

	result, err := h.listingService.ListBlogs(c.Request.Context(), filter, page, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Message: "Blogs fetched successfully",
		Data:    result,
	})
}

// @Summary Получение блога по slug
// @Tags blogs
// @Produce json
// @Param slug path string true "Slug блога"
// @Success 200 {object} models.APIResponse "Блог с данными автора"
// @Failure 404 {object} models.ErrorResponse "Блог не найден"
// @Router /blogs/getBySlug/{slug} [get]
func (h *Handler) getBlogBySlug(c *gin.Context) {
	slug := c.Param("slug")

	blog, err := h.blogService.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Message: "Blog fetched successfully",
		Data:    blog,
	})
}

// @Summary Обновление блога по slug
// @Description Частичное обновление; смена заголовка перегенерирует slug
// @Tags blogs
// @Accept json
// @Produce json
// @Param slug path string true "Slug блога"
// @Param request body models.BlogPatch true "Изменяемые поля"
// @Success 200 {object} models.APIResponse "Обновлённый блог"
// @Failure 403 {object} models.ErrorResponse "Не автор и не администратор"
// @Failure 404 {object} models.ErrorResponse "Блог не найден"
// @Security BearerAuth
// @Router /blogs/update-by-slug/{slug} [put]
func (h *Handler) updateBlogBySlug(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		zap.L().Error("Claims missing in context during blog update")
		handleServiceError(c, models.ErrUnauthorized)
		return
	}

	var patch models.BlogPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	blog, err := h.blogService.UpdateBySlug(c.Request.Context(), c.Param("slug"), patch, claims)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Message: "Blog updated successfully",
		Data:    blog,
	})
}

// @Summary Смена статуса блога
// @Tags blogs
// @Accept json
// @Produce json
// @Param slug path string true "Slug блога"
// @Param request body updateStatusRequest true "Новый статус"
// @Success 200 {object} models.APIResponse "Статус обновлён"
// @Failure 400 {object} models.ErrorResponse "Недопустимый статус"
// @Failure 403 {object} models.ErrorResponse "Не автор и не администратор"
// @Security BearerAuth
// @Router /blogs/status-slug/{slug} [patch]
func (h *Handler) updateBlogStatus(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		zap.L().Error("Claims missing in context during status update")
		handleServiceError(c, models.ErrUnauthorized)
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.blogService.UpdateStatus(c.Request.Context(), c.Param("slug"), req.Status, claims); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{Message: "Blog status updated successfully"})
}

// @Summary Удаление блога по slug
// @Tags blogs
// @Produce json
// @Param slug path string true "Slug блога"
// @Success 200 {object} models.APIResponse "Блог удалён"
// @Failure 403 {object} models.ErrorResponse "Не автор и не администратор"
// @Failure 404 {object} models.ErrorResponse "Блог не найден"
// @Security BearerAuth
// @Router /blogs/delete-by-slug/{slug} [delete]
func (h *Handler) removeBlogBySlug(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		zap.L().Error("Claims missing in context during blog deletion")
		handleServiceError(c, models.ErrUnauthorized)
		return
	}

	if err := h.blogService.RemoveBySlug(c.Request.Context(), c.Param("slug"), claims); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{Message: "Blog deleted successfully"})
}
