package handler

import (
	"github.com/gin-gonic/gin"

	"blog-server/internal/config"
	"blog-server/internal/service"
)

// Handler wires HTTP routes to the application services.
type Handler struct {
	authService    service.AuthService
	blogService    service.BlogService
	listingService service.ListingService
	cfg            *config.Config
}

// NewHandler creates a new Handler.
func NewHandler(authService service.AuthService, blogService service.BlogService, listingService service.ListingService, cfg *config.Config) *Handler {
	return &Handler{
		authService:    authService,
		blogService:    blogService,
		listingService: listingService,
		cfg:            cfg,
	}
}

// RegisterRoutes attaches all application routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	users := router.Group("/users")
	{
		users.POST("/register", h.register)
		users.POST("/login", h.login)
		users.POST("/logout", h.AuthMiddleware(), h.logout)
		users.POST("/refresh-token", h.refreshToken)
		users.POST("/change-password", h.AuthMiddleware(), h.changePassword)
		users.GET("/list", h.listUsers)
	}

	blogs := router.Group("/blogs")
	{
		blogs.POST("/create", h.AuthMiddleware(), h.createBlog)
		blogs.GET("/list", h.listBlogs)
		blogs.GET("/getBySlug/:slug", h.getBlogBySlug)
		// Мутации требуют аутентификации: автор или администратор
		blogs.PUT("/update-by-slug/:slug", h.AuthMiddleware(), h.updateBlogBySlug)
		blogs.PATCH("/status-slug/:slug", h.AuthMiddleware(), h.updateBlogStatus)
		blogs.DELETE("/delete-by-slug/:slug", h.AuthMiddleware(), h.removeBlogBySlug)
	}
}
