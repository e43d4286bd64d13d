package profile

import (
	"time"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleBrand      Role = "brand"
	RoleInfluencer Role = "influencer"
)

type Status string

const (
	StatusActive      Status = "active"
	StatusSuspended   Status = "suspended"
	StatusDeactivated Status = "deactivated"
)

// Profile is the account record for both brands and influencers. Accounts are
// never deleted; Deactivate marks them instead so ledger and report references
// stay resolvable.
type Profile struct {
	ID          string         `json:"id" gorm:"primaryKey;column:id"`
	Role        Role           `json:"role" gorm:"column:role;index"`
	DisplayName string         `json:"display_name" gorm:"column:display_name"`
	Categories  datatypes.JSON `json:"categories,omitempty" gorm:"column:categories"`
	Verified    bool           `json:"verified" gorm:"column:verified"`
	Onboarded   bool           `json:"onboarded" gorm:"column:onboarded"`
	Status      Status         `json:"status" gorm:"column:status;index"`
	CreatedAt   time.Time      `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"column:updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

const (
	kindAccountSuspended   = "account.suspended"
	kindAccountReactivated = "account.reactivated"
)
