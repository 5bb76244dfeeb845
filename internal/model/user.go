package model

import "time"

// User is an authenticated operator of the inventory system.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// LoginRequest carries the credentials submitted on the login form.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
