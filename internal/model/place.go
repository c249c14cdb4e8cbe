package model

import "time"

type CategoryType string

const (
	CategoryRestaurant    CategoryType = "restaurant"
	CategoryRetail        CategoryType = "retail"
	CategoryAutomotive    CategoryType = "automotive"
	CategoryHotel         CategoryType = "hotel"
	CategoryEntertainment CategoryType = "entertainment"
)

// Business is a military-discount location returned by a places lookup.
type Business struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Lat      float64      `json:"lat"`
	Lng      float64      `json:"lng"`
	Address  string       `json:"address"`
	Distance *float64     `json:"distance,omitempty"`
	Category CategoryType `json:"category"`
	Discount string       `json:"discount"`
	Rating   *float64     `json:"rating,omitempty"`
	Note     string       `json:"note,omitempty"`
	ZipCode  string       `json:"zipCode,omitempty"`
	PlaceID  string       `json:"placeId,omitempty"`
}

// CachedLocation is one geocache entry.
type CachedLocation struct {
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Timestamp  time.Time  `json:"timestamp"`
	Businesses []Business `json:"businesses"`
}
