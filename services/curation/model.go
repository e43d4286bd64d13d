package curation

import (
	"time"
)

// Status records an influencer's decision on an approved product.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// Entry associates an influencer with a product they decided on. The product
// was approved at decision time; that fact is captured, not re-validated, so
// later catalog changes never invalidate the decision record. Entries survive
// product removal for audit.
type Entry struct {
	InfluencerID string    `gorm:"column:influencer_id;primaryKey" json:"influencer_id"`
	ProductID    string    `gorm:"column:product_id;primaryKey" json:"product_id"`
	Status       Status    `gorm:"column:status;not null" json:"status"`
	DecidedAt    time.Time `gorm:"column:decided_at;not null" json:"decided_at"`
}

func (Entry) TableName() string {
	return "curation_entries"
}

// Notification kinds emitted by the curation ledger.
const (
	KindCurationAccepted = "curation.accepted"
	KindCurationDeclined = "curation.declined"
)
