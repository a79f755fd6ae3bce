package auth

import (
	"github.com/google/uuid"

	"github.com/roorreach/marketplace-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the tokens and user produced by a successful login.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// RefreshInput identifies the session being rotated. AccessID and UserID come
// from the (possibly expired) access token presented with the refresh token.
type RefreshInput struct {
	AccessID     string
	UserID       uuid.UUID
	RefreshToken string
}

// TokenPair is the result of a refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
