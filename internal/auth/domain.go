package auth

import "time"

// User represents a user account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Status       string
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the account may log in.
func (u User) Active() bool {
	return u.Status == "ACTIVE"
}
