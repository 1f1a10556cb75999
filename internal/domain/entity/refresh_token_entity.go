package entity

import "time"

// RefreshToken is a persisted, not yet rotated refresh token.
// Expiration keeps the human readable form written at issue time.
type RefreshToken struct {
	ID         int64
	UserID     int64
	Token      string
	Expiration string
	CreatedAt  time.Time
}
