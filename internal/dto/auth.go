package dto

// LoginRequest authenticates a teacher account.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest creates a teacher account.
type RegisterRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	SchoolName string `json:"school_name,omitempty"`
}

// TokenResponse returns a dashboard token and the account it belongs to.
type TokenResponse struct {
	Token     string          `json:"token"`
	ExpiresIn int             `json:"expires_in"`
	Teacher   TeacherResponse `json:"teacher"`
}

// TeacherResponse is the public projection of a teacher account.
type TeacherResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	SchoolName string `json:"school_name,omitempty"`
}
