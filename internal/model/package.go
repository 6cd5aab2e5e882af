package model

import "time"

// Package is a purchasable bundle of simulator hours at a fixed
// price.  Packages are never hard-deleted through the normal flow;
// the delete endpoint flips IsActive to false so historical
// purchases keep a valid reference.
type Package struct {
    ID          uint64    // packages.id
    Name        string    // packages.name
    Hours       uint32    // packages.hours
    PriceCents  uint32    // packages.price_cents
    Description string    // packages.description
    IsActive    bool      // packages.is_active
    CreatedAt   time.Time // packages.created_at
    UpdatedAt   time.Time // packages.updated_at
}
