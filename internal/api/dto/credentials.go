package dto

type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,not_empty,email"`
	Password string `json:"password" validate:"required,not_empty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required,not_empty"`
}

type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type AuthResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         UserInfo `json:"user"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
