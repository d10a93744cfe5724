package model

import "time"

// Export describes a collection snapshot written to object storage.
type Export struct {
	Collection string    `json:"collection"`
	Key        string    `json:"key"`
	Documents  int       `json:"documents"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	ExpiresIn  int64     `json:"expires_in_seconds"`
	CreatedAt  time.Time `json:"created_at"`
}
