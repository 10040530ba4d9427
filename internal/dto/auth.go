package dto

import "time"

// LoginRequest defines the credentials for a password login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest carries the refresh token presented for rotation.
type RefreshTokenRequest struct {
	UserID       string `json:"userID" binding:"required"`
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// GoogleIDTokenRequest carries a Google ID token for token-based sign-in.
type GoogleIDTokenRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// AuthResponse represents the response for a successful authentication.
type AuthResponse struct {
	Token         string       `json:"token"`
	TokenExpiry   time.Time    `json:"tokenExpiry"`
	RefreshToken  string       `json:"refreshToken"`
	RefreshExpiry time.Time    `json:"refreshExpiry"`
	User          UserResponse `json:"user"`
}
