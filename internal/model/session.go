package model

import "time"

// Session is one authenticated login instance. The token is the primary key;
// a user may hold any number of concurrent sessions.
type Session struct {
	Token     string    `json:"token" db:"token"` // uuid, generated at creation
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
