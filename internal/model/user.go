package model

// AuthUser is the subset of an auth-backend user the service relies on.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is returned by a successful password sign-in.
type Session struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	User         *AuthUser `json:"user"`
}
