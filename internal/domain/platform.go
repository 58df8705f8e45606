package domain

import "time"

// Platform represents a streaming service that owns watchable titles.
type Platform struct {
	ID        string
	Name      string
	About     string
	Website   string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Titles is populated only by the read-time join helpers.
	Titles []Title
}
