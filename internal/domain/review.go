package domain

import "time"

// Review is a single user's rating plus text for one title. At most one
// review exists per (title, author) pair.
type Review struct {
	ID             string
	TitleID        string
	AuthorID       string
	AuthorUsername string
	Rating         int
	Body           string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
