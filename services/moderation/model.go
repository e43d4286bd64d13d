package moderation

import (
	"time"
)

type Status string

const (
	StatusOpen          Status = "open"
	StatusInvestigating Status = "investigating"
	StatusResolved      Status = "resolved"
	StatusDismissed     Status = "dismissed"
)

type TargetType string

const (
	TargetUser     TargetType = "user"
	TargetProduct  TargetType = "product"
	TargetCampaign TargetType = "campaign"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetUser, TargetProduct, TargetCampaign:
		return true
	}
	return false
}

// Report is an abuse report filed against a user, a product, or a campaign.
// Resolved and dismissed are terminal.
type Report struct {
	ID             string     `json:"id" gorm:"primaryKey;column:id"`
	Code           string     `json:"code,omitempty" gorm:"column:code;uniqueIndex"`
	ReporterID     string     `json:"reporter_id" gorm:"column:reporter_id;index"`
	TargetType     TargetType `json:"target_type" gorm:"column:target_type"`
	TargetID       string     `json:"target_id" gorm:"column:target_id;index"`
	Reason         string     `json:"reason" gorm:"column:reason"`
	Status         Status     `json:"status" gorm:"column:status;index"`
	ResolutionNote string     `json:"resolution_note,omitempty" gorm:"column:resolution_note"`
	CreatedAt      time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"column:updated_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty" gorm:"column:resolved_at"`
}

func (Report) TableName() string {
	return "moderation_reports"
}

const (
	kindReportResolved  = "report.resolved"
	kindReportDismissed = "report.dismissed"
)
