package auth

import "github.com/watchhub/watchlist-api/internal/domain"

// Capability enumerates the actions the access policy rules on.
type Capability int

const (
	ReadPlatform Capability = iota
	WritePlatform
	ReadTitle
	WriteTitle
	ReadReview
	WriteReview
	CreateReview
)

// Resource carries the attributes a policy decision depends on. For reviews
// OwnerID is the author's user id; platforms and titles leave it empty.
type Resource struct {
	OwnerID string
}

// Allows decides whether the identity may exercise the capability on the
// resource. It is a pure function: reads are open to everyone, platform and
// title writes need the admin role, review creation needs any authenticated
// identity, and review writes are restricted to the author.
func Allows(id *domain.Identity, res Resource, c Capability) bool {
	switch c {
	case ReadPlatform, ReadTitle, ReadReview:
		return true
	case WritePlatform, WriteTitle:
		return id.IsAdmin()
	case CreateReview:
		return id != nil
	case WriteReview:
		return id != nil && id.UserID == res.OwnerID
	}
	return false
}
