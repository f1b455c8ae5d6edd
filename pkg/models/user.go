package models

import (
	"time"
)

// User is a marketplace user profile. The ID is assigned by the external
// identity provider; the backend never generates or interprets it.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
