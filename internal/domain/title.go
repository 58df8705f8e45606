package domain

import "time"

// Title represents a watchable entry (movie/show) belonging to a platform.
//
// AverageRating and RatingCount are derived values owned by the review
// aggregation path; clients never write them directly.
type Title struct {
	ID         string
	PlatformID string
	// PlatformName is inlined from the owning platform at read time.
	PlatformName  string
	Name          string
	Synopsis      string
	Active        bool
	AverageRating float64
	RatingCount   int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
