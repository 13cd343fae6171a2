package domain

import "time"

// UserProfile holds the stored profile data used as the second source for
// authorName resolution when the access token carries no display name.
type UserProfile struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
