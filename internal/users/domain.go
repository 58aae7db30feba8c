package users

import "time"

// User is the settings view of an account.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateUserRequest edits account metadata. Passwords are not managed here.
type UpdateUserRequest struct {
	Name   string `json:"name" validate:"omitempty,max=255"`
	Role   string `json:"role" validate:"omitempty,oneof=MANAGER STAFF"`
	Status string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}
