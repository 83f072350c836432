package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Типы токенов. Access и refresh подписаны одним секретом, поэтому
// claim typ — единственное, что не дает предъявить refresh-токен
// как access и наоборот.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims представляет стандартные поля JWT и пользовательские данные,
// которые мы хотим включить в токен.
type Claims struct {
	UserID               uuid.UUID `json:"user_id"`
	Role                 string    `json:"role"`
	TokenType            string    `json:"typ"`
	jwt.RegisteredClaims           // Issuer, Subject, ExpiresAt, IssuedAt, ID (JTI)
}

// TokenDetails holds a freshly issued access/refresh token pair.
type TokenDetails struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	AtExpires    int64  `json:"-"`
	RtExpires    int64  `json:"-"`
}
