package models

// Credentials is the body of signup and login requests.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupResponse returns the id of the created account.
type SignupResponse struct {
	Success bool  `json:"success"`
	UserID  int64 `json:"userId"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}
