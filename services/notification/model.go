package notification

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

// Notification is one event record in a recipient's queue. Payload is opaque
// to the hub; kinds are owned by the emitting subsystems.
type Notification struct {
	ID          string         `gorm:"column:id;primaryKey" json:"id"`
	RecipientID string         `gorm:"column:recipient_id;index;not null" json:"recipient_id"`
	Kind        string         `gorm:"column:kind;not null" json:"kind"`
	Payload     datatypes.JSON `gorm:"column:payload" json:"payload"`
	Read        bool           `gorm:"column:is_read;default:false" json:"read"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	ReadAt      *time.Time     `gorm:"column:read_at" json:"read_at,omitempty"`
}

// Notifier is the narrow surface other subsystems use to fan out events.
type Notifier interface {
	Notify(ctx context.Context, recipientID, kind string, payload map[string]any) error
}
