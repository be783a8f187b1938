package model

// User identifies an account on the task API.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Credentials are submitted to the register and login endpoints.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
}

// CurrentUser is returned by the "me" endpoint.
type CurrentUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Session is a validated sign-in: the user identity plus the bearer
// token that proved it.
type Session struct {
	User        User
	AccessToken string
}
