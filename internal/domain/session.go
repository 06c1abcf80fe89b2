package domain

import "time"

// Session ancla una conversación: el perfil del usuario vive keyed por su ID
// y se resetea al crear una sesión nueva.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired indica si la sesión ya venció.
func (s Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
