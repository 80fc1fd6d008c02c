package model

import "time"

// Service describes a bookable marketplace offering.  Services are
// created and maintained by admins; clients only read them.  Prices
// are stored in cents to avoid floating point drift.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – service name (max 100 characters).
//  Description – free-text description.
//  PriceCents  – non-negative price in cents.
//  Category    – one of the Category* constants.
//  IsActive    – whether the service is currently offered.
//  Image       – optional path to an uploaded image (nullable).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Service struct {
	ID          uint64    // services.id
	Name        string    // services.name
	Description string    // services.description
	PriceCents  int64     // services.price_cents
	Category    string    // services.category
	IsActive    bool      // services.is_active
	Image       *string   // services.image (nullable)
	CreatedAt   time.Time // services.created_at
	UpdatedAt   time.Time // services.updated_at
}

// Service categories form a closed set; anything else is rejected at
// validation time.
const (
	CategoryContentCreator   = "Content Creator"
	CategorySocialMediaMgmt  = "Social Media Management"
	CategorySocialMediaAds   = "Social Media Advertising"
)

// ValidCategory reports whether s is one of the recognised service
// categories.
func ValidCategory(s string) bool {
	switch s {
	case CategoryContentCreator, CategorySocialMediaMgmt, CategorySocialMediaAds:
		return true
	}
	return false
}
