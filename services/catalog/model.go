package catalog

import (
	"time"
)

// Status is the closed set of product lifecycle states.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusRemoved   Status = "removed"
)

// transitions is the full lifecycle graph. Removed is terminal.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusApproved, StatusRejected},
	StatusApproved:  {StatusRemoved},
	StatusRejected:  {StatusRemoved},
}

// CanTransition reports whether from -> to is a legal lifecycle edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Product is owned by its brand until removed; all mutations go through the
// catalog service. Status and StatusChangedAt always change together.
type Product struct {
	ID              string    `gorm:"column:id;primaryKey" json:"id"`
	Code            string    `gorm:"column:code;uniqueIndex" json:"code"`
	BrandID         string    `gorm:"column:brand_id;index;not null" json:"brand_id"`
	Name            string    `gorm:"column:name;not null" json:"name"`
	Description     string    `gorm:"column:description" json:"description"`
	Price           int64     `gorm:"column:price;not null" json:"price"` // minor units
	Currency        string    `gorm:"column:currency;default:'USD'" json:"currency"`
	Status          Status    `gorm:"column:status;index;default:'draft'" json:"status"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	StatusChangedAt time.Time `gorm:"column:status_changed_at" json:"status_changed_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Notification kinds emitted by the catalog.
const (
	KindProductApproved = "product.approved"
	KindProductRejected = "product.rejected"
	KindProductRemoved  = "product.removed"
)
