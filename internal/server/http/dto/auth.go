package dto

// AuthRequest carries the credentials for both register and login.
type AuthRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}
