package models

import "time"

// User is an account that can authenticate and own places. PlaceIDs mirrors
// the user_places set maintained by the place coordinator: every owned place
// id appears here, and every id here points at an existing place.
type User struct {
	ID             string
	Name           string
	Email          string
	PasswordDigest string
	ImageRef       string
	PlaceIDs       []string

	// Pending password reset, at most one per user. Both fields are unset
	// when no reset is outstanding.
	ResetToken  string
	ResetExpiry time.Time

	CreatedAt time.Time
}

// UserSummary is the public listing projection of a user.
type UserSummary struct {
	ID             string
	Name           string
	Email          string
	ImageRef       string
	NumberOfPlaces int
}
