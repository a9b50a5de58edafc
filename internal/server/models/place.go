package models

import "time"

// Location is a resolved geographic coordinate pair.
type Location struct {
	Lat float64
	Lng float64
}

// Place is a geotagged record owned by exactly one user.
type Place struct {
	ID          string
	Title       string
	Description string
	ImageRef    string
	Address     string
	Location    Location
	OwnerID     string
	CreatedAt   time.Time
}
