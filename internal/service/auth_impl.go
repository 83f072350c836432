package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"blog-server/internal/config"
	"blog-server/internal/models"
	"blog-server/internal/repository"
	"blog-server/internal/storage"
)

// Compile-time check to ensure authServiceImpl implements AuthService
var _ AuthService = (*authServiceImpl)(nil)

const tokenIssuer = "blog-server"

// authServiceImpl implements the AuthService interface.
type authServiceImpl struct {
	userRepo repository.UserRepository
	blobs    storage.BlobStore
	cfg      *config.Config
	logger   *zap.Logger
}

// NewAuthService creates a new instance of authServiceImpl.
func NewAuthService(userRepo repository.UserRepository, blobs storage.BlobStore, cfg *config.Config, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		userRepo: userRepo,
		blobs:    blobs,
		cfg:      cfg,
		logger:   logger.Named("AuthService"),
	}
}

// Register creates a new user with uploaded avatar/cover images.
func (s *authServiceImpl) Register(ctx context.Context, input RegisterInput, avatar, cover *Upload) (*models.User, error) {
	// Приводим идентификаторы к нижнему регистру и убираем пробелы
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)

	logFields := []zap.Field{zap.String("username", input.Username), zap.String("email", input.Email)}
	s.logger.Info("Registering new user", logFields...)

	if input.Username == "" || input.FullName == "" || input.Email == "" || input.Password == "" {
		s.logger.Warn("Registration attempt with missing required fields", logFields...)
		return nil, fmt.Errorf("all fields are required: %w", models.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		s.logger.Warn("Registration attempt with invalid email format", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("invalid email format: %w", models.ErrInvalidInput)
	}
	if avatar == nil {
		s.logger.Warn("Registration attempt without avatar file", logFields...)
		return nil, fmt.Errorf("avatar file is required: %w", models.ErrInvalidInput)
	}

	// Быстрые проверки существования. Авторитетный источник конфликта —
	// уникальные constraint'ы БД при вставке (см. CreateUser).
	if existing, err := s.userRepo.GetUserByUsername(ctx, input.Username); err != nil && !errors.Is(err, models.ErrUserNotFound) {
		s.logger.Error("Error checking existing username during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("error checking existing username: %w", err)
	} else if existing != nil {
		s.logger.Warn("Registration attempt for existing username", logFields...)
		return nil, models.ErrUserAlreadyExists
	}
	if existing, err := s.userRepo.GetUserByEmail(ctx, input.Email); err != nil && !errors.Is(err, models.ErrUserNotFound) {
		s.logger.Error("Error checking existing email during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("error checking existing email: %w", err)
	} else if existing != nil {
		s.logger.Warn("Registration attempt for existing email", logFields...)
		return nil, models.ErrEmailAlreadyExists
	}

	// Файлы загружаются ДО создания записи: неудачная загрузка прерывает
	// регистрацию и не оставляет пользователя без аватара.
	avatarURL, err := s.blobs.Upload(ctx, "avatars", avatar.ContentType, avatar.Content)
	if err != nil {
		s.logger.Error("Failed to upload avatar during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}
	var coverURL string
	if cover != nil {
		coverURL, err = s.blobs.Upload(ctx, "covers", cover.ContentType, cover.Content)
		if err != nil {
			s.logger.Error("Failed to upload cover image during registration", append(logFields, zap.Error(err))...)
			return nil, fmt.Errorf("failed to upload cover image: %w", err)
		}
	}

	passwordHash, err := s.hashPassword(input.Password)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:      input.Username,
		FullName:      input.FullName,
		Email:         input.Email,
		PasswordHash:  passwordHash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		Role:          models.RoleUser,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		// Ошибки уникальности уже замаплены репозиторием
		if !errors.Is(err, models.ErrUserAlreadyExists) && !errors.Is(err, models.ErrEmailAlreadyExists) {
			s.logger.Error("Failed to create user via repository", append(logFields, zap.Error(err))...)
		}
		return nil, err
	}

	s.logger.Info("User registered successfully", zap.String("userID", user.ID.String()), zap.String("username", user.Username))
	return sanitizeUser(user), nil
}

// Login authenticates a user and returns the sanitized user plus tokens.
func (s *authServiceImpl) Login(ctx context.Context, usernameOrEmail, password string) (*models.User, *models.TokenDetails, error) {
	identifier := strings.ToLower(strings.TrimSpace(usernameOrEmail))
	s.logger.Info("Login attempt", zap.String("identifier", identifier))

	if identifier == "" {
		s.logger.Warn("Login attempt without username or email")
		return nil, nil, fmt.Errorf("username or email is required: %w", models.ErrInvalidInput)
	}

	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("Login failed: user not found", zap.String("identifier", identifier))
			return nil, nil, models.ErrUserNotFound
		}
		s.logger.Error("Login failed: error getting user from repository", zap.Error(err), zap.String("identifier", identifier))
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.checkPassword(password, user.PasswordHash) {
		// Неверный пароль НЕ трогает сохраненный refresh-токен
		s.logger.Warn("Login failed: invalid password", zap.String("userID", user.ID.String()))
		return nil, nil, models.ErrInvalidCredentials
	}

	td, err := s.createTokens(user)
	if err != nil {
		s.logger.Error("Failed to create tokens during login", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, nil, fmt.Errorf("failed to create tokens: %w", err)
	}

	if err := s.userRepo.SetRefreshToken(ctx, user.ID, &td.RefreshToken); err != nil {
		s.logger.Error("Failed to persist refresh token during login", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	s.logger.Info("User logged in successfully", zap.String("userID", user.ID.String()))
	return sanitizeUser(user), td, nil
}

// Logout clears the stored refresh token for the user.
func (s *authServiceImpl) Logout(ctx context.Context, userID uuid.UUID) error {
	log := s.logger.With(zap.String("userID", userID.String()))
	log.Debug("Attempting to logout user")

	if err := s.userRepo.SetRefreshToken(ctx, userID, nil); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			// Запись могла быть удалена — выход все равно успешен
			log.Info("Logout for missing user record, nothing to revoke")
			return nil
		}
		log.Error("Failed to clear refresh token during logout", zap.Error(err))
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}

	log.Info("User logged out, refresh token revoked")
	return nil
}

// Refresh issues a new token pair based on a valid refresh token.
func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error) {
	s.logger.Info("Token refresh attempt") // Не логируем сам токен

	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != models.TokenTypeRefresh {
		s.logger.Warn("Non-refresh token presented for refresh",
			zap.String("tokenType", claims.TokenType),
			zap.String("userID", claims.UserID.String()),
		)
		return nil, models.ErrTokenInvalid
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("Refresh attempt for non-existent user", zap.String("userID", claims.UserID.String()))
			return nil, models.ErrTokenInvalid
		}
		s.logger.Error("Error fetching user during token refresh", zap.Error(err), zap.String("userID", claims.UserID.String()))
		return nil, fmt.Errorf("error fetching user during refresh: %w", err)
	}

	// Серверная проверка отзыва: токен должен совпадать с сохраненной
	// копией. После logout копия обнулена и refresh невозможен, даже
	// если срок действия токена еще не истек.
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		s.logger.Warn("Refresh attempt with revoked or superseded token", zap.String("userID", user.ID.String()))
		return nil, models.ErrTokenRevoked
	}

	td, err := s.createTokens(user)
	if err != nil {
		s.logger.Error("Failed to create new tokens during refresh", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, fmt.Errorf("failed to create new tokens during refresh: %w", err)
	}

	if err := s.userRepo.SetRefreshToken(ctx, user.ID, &td.RefreshToken); err != nil {
		s.logger.Error("Failed to persist rotated refresh token", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, fmt.Errorf("failed to persist rotated refresh token: %w", err)
	}

	s.logger.Info("Token refreshed successfully", zap.String("userID", user.ID.String()))
	return td, nil
}

// ChangePassword re-hashes and persists the new password after verifying
// the old one through the same instance-bound check login uses.
func (s *authServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	log := s.logger.With(zap.String("userID", userID.String()))
	log.Info("Attempting to change user password")

	if strings.TrimSpace(newPassword) == "" {
		log.Warn("Password change attempt with empty new password")
		return fmt.Errorf("new password is required: %w", models.ErrInvalidInput)
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.checkPassword(oldPassword, user.PasswordHash) {
		log.Warn("Password change failed: old password does not verify")
		return models.ErrInvalidCredentials
	}

	newHash, err := s.hashPassword(newPassword)
	if err != nil {
		log.Error("Failed to hash new password", zap.Error(err))
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		return err
	}

	// Сбрасываем текущую сессию: старый refresh-токен больше не действует
	if err := s.userRepo.SetRefreshToken(ctx, userID, nil); err != nil && !errors.Is(err, models.ErrUserNotFound) {
		log.Error("Non-critical: failed to revoke refresh token after password change", zap.Error(err))
	}

	log.Info("User password changed successfully")
	return nil
}

// VerifyAccessToken parses and validates an access token string.
// Refresh-токен здесь не принимается, даже будучи подписанным тем же
// секретом: он живет дольше и отзывается отдельно.
func (s *authServiceImpl) VerifyAccessToken(ctx context.Context, token string) (*models.Claims, error) {
	s.logger.Debug("Verifying access token") // Не логируем сам токен
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != models.TokenTypeAccess {
		s.logger.Warn("Non-access token presented as bearer token",
			zap.String("tokenType", claims.TokenType),
			zap.String("userID", claims.UserID.String()),
		)
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}

// --- Helper Functions ---

func sanitizeUser(user *models.User) *models.User {
	sanitized := *user
	sanitized.PasswordHash = ""
	sanitized.RefreshToken = nil
	return &sanitized
}

// findByIdentifier ищет пользователя по username или email.
func (s *authServiceImpl) findByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if strings.Contains(identifier, "@") {
		user, err := s.userRepo.GetUserByEmail(ctx, identifier)
		if err == nil || !errors.Is(err, models.ErrUserNotFound) {
			return user, err
		}
	}
	return s.userRepo.GetUserByUsername(ctx, identifier)
}

// hashPassword generates a bcrypt hash of the password.
func (s *authServiceImpl) hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// checkPassword compares a plain text password with a stored hash.
// Единственная точка проверки пароля — используется и login'ом,
// и сменой пароля.
func (s *authServiceImpl) checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// parseToken validates signature and expiry and returns the claims.
func (s *authServiceImpl) parseToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Debug("Token verification failed: expired")
			return nil, models.ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenMalformed) {
			s.logger.Warn("Token verification failed: malformed")
			return nil, models.ErrTokenMalformed
		}
		s.logger.Error("Failed to parse token", zap.Error(err))
		return nil, models.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		s.logger.Warn("Token verification failed (invalid claims type or signature)")
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}

// createTokens generates a new access/refresh token pair for a user.
func (s *authServiceImpl) createTokens(user *models.User) (*models.TokenDetails, error) {
	s.logger.Debug("Creating new token pair", zap.String("userID", user.ID.String()))

	now := time.Now()
	td := &models.TokenDetails{
		AtExpires: now.Add(s.cfg.AccessTokenTTL).Unix(),
		RtExpires: now.Add(s.cfg.RefreshTokenTTL).Unix(),
	}

	newClaims := func(tokenType string, expires int64) *models.Claims {
		return &models.Claims{
			UserID:    user.ID,
			Role:      user.Role,
			TokenType: tokenType,
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   user.ID.String(),
				Issuer:    tokenIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Unix(expires, 0)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
		}
	}

	var err error
	acToken := jwt.NewWithClaims(jwt.SigningMethodHS256, newClaims(models.TokenTypeAccess, td.AtExpires))
	td.AccessToken, err = acToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	rtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, newClaims(models.TokenTypeRefresh, td.RtExpires))
	td.RefreshToken, err = rtToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		s.logger.Error("Failed to sign refresh token", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return td, nil
}
