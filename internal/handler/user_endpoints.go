package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blog-server/internal/models"
	"blog-server/internal/repository"
	"blog-server/internal/service"
)

// Имена http-only кук, в которых живёт пара токенов.
const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// setAuthCookies writes the token pair as http-only cookies, scoped to
// the whole site. Max-age совпадает с TTL соответствующего токена.
func (h *Handler) setAuthCookies(c *gin.Context, td *models.TokenDetails) {
	secure := h.cfg.Env != "development"
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessTokenCookie, td.AccessToken, int(h.cfg.AccessTokenTTL.Seconds()), "/", "", secure, true)
	c.SetCookie(refreshTokenCookie, td.RefreshToken, int(h.cfg.RefreshTokenTTL.Seconds()), "/", "", secure, true)
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	secure := h.cfg.Env != "development"
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", secure, true)
}

// openUpload turns a multipart file header into a service.Upload.
// Caller закрывает возвращённый файл.
func openUpload(fh *multipart.FileHeader) (*service.Upload, multipart.File, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.Upload{
		Content:     file,
		ContentType: fh.Header.Get("Content-Type"),
	}, file, nil
}

// @Summary Регистрация нового пользователя
// @Description Создает аккаунт по multipart-форме с обязательным аватаром
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} models.APIResponse "Созданный пользователь"
// @Failure 400 {object} models.ErrorResponse "Неверные данные запроса"
// @Failure 409 {object} models.ErrorResponse "Пользователь уже существует"
// @Router /users/register [post]
func (h *Handler) register(c *gin.Context) {
	input := service.RegisterInput{
		Username: c.PostForm("username"),
		FullName: c.PostForm("fullName"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
	}

	avatarHeader, err := c.FormFile("avatar")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
			Message: "Invalid request data",
			Error:   "avatar file is required",
		})
		return
	}

	avatar, avatarFile, err := openUpload(avatarHeader)
	if err != nil {
		zap.L().Error("Failed to open avatar upload", zap.Error(err))
		handleServiceError(c, models.ErrInternalServer)
		return
	}
	defer avatarFile.Close()

	// Обложка опциональна: отсутствие файла — не ошибка.
	var cover *service.Upload
	if coverHeader, err := c.FormFile("coverImage"); err == nil {
		var coverFile multipart.File
		cover, coverFile, err = openUpload(coverHeader)
		if err != nil {
			zap.L().Error("Failed to open cover upload", zap.Error(err))
			handleServiceError(c, models.ErrInternalServer)
			return
		}
		defer coverFile.Close()
	}

	user, err := h.authService.Register(c.Request.Context(), input, avatar, cover)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	registrationsTotal.Inc()

	c.JSON(http.StatusCreated, models.APIResponse{
		Message: "User registered successfully",
		Data:    user,
	})
}

// @Summary Вход в систему
// @Description Аутентификация по username или email, токены уходят в http-only куки
// @Tags users
// @Accept json
// @Produce json
// @Param request body loginRequest true "Данные для входа"
// @Success 200 {object} models.APIResponse "Пользователь и пара токенов"
// @Failure 400 {object} models.ErrorResponse "Неверные данные запроса"
// @Failure 401 {object} models.ErrorResponse "Неверные учетные данные"
// @Router /users/login [post]
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
			Message: "Invalid request data",
			Error:   "username or email is required",
		})
		return
	}

	user, tokens, err := h.authService.Login(c.Request.Context(), identifier, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	loginsTotal.Inc()
	h.setAuthCookies(c, tokens)

	c.JSON(http.StatusOK, models.APIResponse{
		Message: "Login successful",
		Data: loginResponse{
			User:         user,
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
		},
	})
}

// @Summary Выход из системы
// @Description Отзывает сохранённый refresh токен и чистит куки
// @Tags users
// @Produce json
// @Success 200 {object} models.APIResponse "Успешный выход"
// @Failure 401 {object} models.ErrorResponse "Требуется аутентификация"
// @Security BearerAuth
// @Router /users/logout [post]
func (h *Handler) logout(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		zap.L().Error("Claims missing in context during logout")
		handleServiceError(c, models.ErrUnauthorized)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.UserID); err != nil {
		handleServiceError(c, err)
		return
	}

	h.clearAuthCookies(c)

	c.JSON(http.StatusOK, models.APIResponse{Message: "Logout successful"})
}

// @Summary Обновление пары токенов
// @Description Принимает refresh токен из тела или куки, возвращает новую пару
// @Tags users
// @Accept json
// @Produce json
// @Param request body refreshRequest false "Refresh токен"
// @Success 200 {object} models.APIResponse "Новая пара токенов"
// @Failure 401 {object} models.ErrorResponse "Токен отозван или невалиден"
// @Router /users/refresh-token [post]
func (h *Handler) refreshToken(c *gin.Context) {
	var req refreshRequest
	// Тело опционально: токен может прийти в куке.
	_ = c.ShouldBindJSON(&req)

	tokenString := req.RefreshToken
	if tokenString == "" {
		if cookie, err := c.Cookie(refreshTokenCookie); err == nil {
			tokenString = cookie
		}
	}
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
			Message: "Invalid request data",
			Error:   "refresh token is required",
		})
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), tokenString)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	refreshesTotal.Inc()
	h.setAuthCookies(c, tokens)

	c.JSON(http.StatusOK, models.APIResponse{
		Message: "Token refreshed successfully",
		Data: gin.H{
			"accessToken":  tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
		},
	})
}

// @Summary Смена пароля
// @Description Меняет пароль текущего пользователя после проверки старого
// @Tags users
// @Accept json
// @Produce json
// @Param request body changePasswordRequest true "Старый и новый пароль"
// @Success 200 {object} models.APIResponse "Пароль изменён"
// @Failure 401 {object} models.ErrorResponse "Неверный старый пароль"
// @Security BearerAuth
// @Router /users/change-password [post]
func (h *Handler) changePassword(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		zap.L().Error("Claims missing in context during password change")
		handleServiceError(c, models.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), claims.UserID, req.OldPassword, req.NewPassword); err != nil {
		handleServiceError(c, err)
		return
	}

	// Смена пароля отзывает refresh токен, куки больше не действительны.
	h.clearAuthCookies(c)

	c.JSON(http.StatusOK, models.APIResponse{Message: "Password changed successfully"})
}

// @Summary Список пользователей
// @Description Фильтрация по username (подстрока) и роли, с пагинацией
// @Tags users
// @Produce json
// @Param username query string false "Подстрока имени пользователя"
// @Param role query string false "Роль"
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} models.APIResponse "Страница пользователей"
// @Router /users/list [get]
func (h *Handler) listUsers(c *gin.Context) {
	filter := repository.UserFilter{
		Username: c.Query("username"),
		Role:     c.Query("role"),
	}
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)

	result, err := h.listingService.ListUsers(c.Request.Context(), filter, page, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Message: "Users fetched successfully",
		Data:    result,
	})
}
