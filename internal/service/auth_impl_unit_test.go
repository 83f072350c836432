package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blog-server/internal/config"
	"blog-server/internal/models"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "unit-test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
}

func newTestAuthService(t *testing.T) (*authServiceImpl, *fakeUserRepository, *fakeBlobStore) {
	t.Helper()
	repo := newFakeUserRepository()
	blobs := &fakeBlobStore{}
	svc := NewAuthService(repo, blobs, testAuthConfig(), zap.NewNop()).(*authServiceImpl)
	return svc, repo, blobs
}

func registerInput() RegisterInput {
	return RegisterInput{
		Username: "alice",
		FullName: "Alice Smith",
		Email:    "alice@example.com",
		Password: "password123",
	}
}

func avatarUpload() *Upload {
	return &Upload{Content: strings.NewReader("png-bytes"), ContentType: "image/png"}
}

// Тесты hashPassword / checkPassword

func TestHashAndCheckPassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	password := "mysecretpassword"

	hashed, err := svc.hashPassword(password)
	require.NoError(t, err, "hashPassword should not return an error")
	require.NotEmpty(t, hashed, "hashPassword should return a non-empty string")
	assert.NotEqual(t, password, hashed, "Hashed password should not equal the original password")

	assert.True(t, svc.checkPassword(password, hashed), "checkPassword should return true for correct password")
	assert.False(t, svc.checkPassword("wrongpassword", hashed), "checkPassword should return false for incorrect password")
	assert.False(t, svc.checkPassword(password, "not-a-bcrypt-hash"), "checkPassword should return false for invalid hash format")
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	// Отсутствие обязательного поля
	input := registerInput()
	input.FullName = ""
	_, err := svc.Register(ctx, input, avatarUpload(), nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput, "missing fullName should be rejected")

	// Некорректный email
	input = registerInput()
	input.Email = "not-an-email"
	_, err = svc.Register(ctx, input, avatarUpload(), nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput, "invalid email should be rejected")

	// Без аватара регистрация невозможна
	_, err = svc.Register(ctx, registerInput(), nil, nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput, "missing avatar should be rejected")
}

func TestRegisterSuccessAndSanitization(t *testing.T) {
	svc, repo, blobs := newTestAuthService(t)
	ctx := context.Background()

	// Идентификаторы с пробелами и верхним регистром нормализуются
	input := registerInput()
	input.Username = "  Alice "
	input.Email = " Alice@Example.COM "

	user, err := svc.Register(ctx, input, avatarUpload(), avatarUpload())
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role, "new users get the regular role")
	assert.NotEmpty(t, user.AvatarURL)
	assert.NotEmpty(t, user.CoverImageURL)
	assert.Equal(t, 2, blobs.uploads, "avatar and cover should both be uploaded")

	// Ответ санитизирован
	assert.Empty(t, user.PasswordHash, "password hash must not leak in the response")
	assert.Nil(t, user.RefreshToken)

	// А в хранилище хеш есть и это не сам пароль
	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "password123", stored.PasswordHash)
}

func TestRegisterConflicts(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput(), avatarUpload(), nil)
	require.NoError(t, err)

	// Повтор username
	input := registerInput()
	input.Email = "other@example.com"
	_, err = svc.Register(ctx, input, avatarUpload(), nil)
	assert.ErrorIs(t, err, models.ErrUserAlreadyExists)

	// Повтор email
	input = registerInput()
	input.Username = "bob"
	_, err = svc.Register(ctx, input, avatarUpload(), nil)
	assert.ErrorIs(t, err, models.ErrEmailAlreadyExists)
}

func TestRegisterAbortsOnFailedUpload(t *testing.T) {
	svc, repo, blobs := newTestAuthService(t)
	ctx := context.Background()

	uploadErr := errors.New("blob store unavailable")
	blobs.failWith = uploadErr

	// Неудачная загрузка аватара прерывает регистрацию целиком
	_, err := svc.Register(ctx, registerInput(), avatarUpload(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, uploadErr)

	// Пользователь без аватара не должен остаться в хранилище
	assert.Empty(t, repo.users, "failed upload must not leave an orphan user record")
	_, getErr := repo.GetUserByUsername(ctx, "alice")
	assert.ErrorIs(t, getErr, models.ErrUserNotFound)

	// После восстановления хранилища та же регистрация проходит
	blobs.failWith = nil
	user, err := svc.Register(ctx, registerInput(), avatarUpload(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, user.AvatarURL)
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerInput(), avatarUpload(), nil)
	require.NoError(t, err)

	user, tokens, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	require.NotNil(t, tokens)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Empty(t, user.PasswordHash, "login response must be sanitized")

	// Вход по email эквивалентен входу по username
	_, _, err = svc.Login(ctx, "ALICE@example.com", "password123")
	require.NoError(t, err)

	// Несуществующий пользователь
	_, _, err = svc.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestLoginWrongPasswordKeepsStoredRefreshToken(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput(), avatarUpload(), nil)
	require.NoError(t, err)

	_, tokens, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	stored := repo.storedRefreshToken(user.ID)
	require.NotNil(t, stored)
	require.Equal(t, tokens.RefreshToken, *stored)

	// Неудачная попытка входа не должна трогать сохраненный токен
	_, _, err = svc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	after := repo.storedRefreshToken(user.ID)
	require.NotNil(t, after, "failed login must not revoke the stored refresh token")
	assert.Equal(t, *stored, *after)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput(), avatarUpload(), nil)
	require.NoError(t, err)

	_, tokens, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken, "refresh must rotate the token")

	stored := repo.storedRefreshToken(user.ID)
	require.NotNil(t, stored)
	assert.Equal(t, rotated.RefreshToken, *stored)

	// Старый токен вытеснен ротацией и больше не принимается
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, models.ErrTokenRevoked)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput(), avatarUpload(), nil)
	require.NoError(t, err)

	_, tokens, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, user.ID))
	assert.Nil(t, repo.storedRefreshToken(user.ID))

	// Токен синтаксически валиден и не истек, но отозван на сервере
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, models.ErrTokenRevoked)
}

func TestChangePassword(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput(), avatarUpload(), nil)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	// Неверный старый пароль
	err = svc.ChangePassword(ctx, user.ID, "wrong-old", "newpassword456")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	// Успешная смена
	require.NoError(t, svc.ChangePassword(ctx, user.ID, "password123", "newpassword456"))

	// Refresh-токен отозван вместе со сменой пароля
	assert.Nil(t, repo.storedRefreshToken(user.ID))

	// Старый пароль больше не работает, новый — работает
	_, _, err = svc.Login(ctx, "alice", "password123")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "alice", "newpassword456")
	assert.NoError(t, err)
}

func TestVerifyAccessToken(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerInput(), avatarUpload(), nil)
	require.NoError(t, err)

	_, tokens, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, models.TokenTypeAccess, claims.TokenType)

	// Мусор вместо токена
	_, err = svc.VerifyAccessToken(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, models.ErrTokenMalformed)

	// Токен, подписанный другим секретом
	otherSvc := NewAuthService(newFakeUserRepository(), &fakeBlobStore{}, &config.Config{
		JWTSecret:       "different-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}, zap.NewNop()).(*authServiceImpl)
	_, err = otherSvc.VerifyAccessToken(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput(), avatarUpload(), nil)
	require.NoError(t, err)

	_, tokens, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	// Refresh-токен подписан тем же секретом, но не является access-токеном:
	// предъявление его как bearer должно отклоняться все 7 дней его жизни
	_, err = svc.VerifyAccessToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid, "refresh token must not be accepted as an access token")

	// И после logout тем более
	require.NoError(t, svc.Logout(ctx, user.ID))
	_, err = svc.VerifyAccessToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)

	// Обратное направление: access-токен нельзя обменять на новую пару
	_, err = svc.Refresh(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid, "access token must not be spendable as a refresh token")
}

func TestVerifyExpiredAccessToken(t *testing.T) {
	repo := newFakeUserRepository()
	// Отрицательный TTL дает уже истекший токен
	cfg := &config.Config{
		JWTSecret:       "unit-test-secret",
		AccessTokenTTL:  -time.Minute,
		RefreshTokenTTL: time.Hour,
	}
	svc := NewAuthService(repo, &fakeBlobStore{}, cfg, zap.NewNop()).(*authServiceImpl)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput(), avatarUpload(), nil)
	require.NoError(t, err)

	_, tokens, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
}
