package auth

import "github.com/angelmondragon/dispensary-pos/internal/users"

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token paired with the caller's access token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPair is returned whenever a session is created or rotated.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse contains the tokens and the signed-in user.
type LoginResponse struct {
	TokenPair
	User *users.UserDTO `json:"user"`
}
