package user

import (
	"github.com/ehr/regimen/internal/platform/lifecycle"
)

// User is an account allowed to sign in to the API. Password is accepted on
// create only and is never returned.
type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username" validate:"notblank,max=255"`
	FullName     string `db:"full_name" json:"full_name" validate:"notblank,max=255"`
	Password     string `db:"-" json:"password,omitempty" validate:"notblank,max=72"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         string `db:"role" json:"role" validate:"omitempty,oneof=admin clinician viewer"`
	lifecycle.Status
	lifecycle.Audit
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token is the login response body.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}
