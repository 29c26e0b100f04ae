package request

// RegisterRequest is the request body for registering an account
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateNicknameRequest is the request body for changing the profile nickname
type UpdateNicknameRequest struct {
	Nickname string `json:"nickname"`
}
