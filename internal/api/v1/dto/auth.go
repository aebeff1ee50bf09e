package dto

// AuthRequest is shared by /signup and /login
type AuthRequest struct {
	Email    string `json:"email" validate:"required,min=5"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignupResponseDTO struct {
	User  string `json:"user"`
	Email string `json:"email"`
}

type LoginUserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type LoginResponseDTO struct {
	User        LoginUserDTO `json:"user"`
	AccessToken string       `json:"access_token"`
}
