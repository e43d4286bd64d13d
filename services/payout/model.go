package payout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// RequestStatus is the payout request lifecycle. Completed and failed are
// terminal.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusProcessing RequestStatus = "processing"
	StatusCompleted  RequestStatus = "completed"
	StatusFailed     RequestStatus = "failed"
)

type EntryType string

const (
	EntryCredit EntryType = "credit"
	EntryDebit  EntryType = "debit"
)

// Balance is the payee's spendable amount in minor units. It is decremented
// when a payout is requested, not when it settles, so concurrent requests
// cannot double-spend. It never goes negative.
type Balance struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	PayeeID   string    `gorm:"column:payee_id;uniqueIndex;not null" json:"payee_id"`
	Balance   int64     `gorm:"column:balance;not null;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// LedgerEntry is the append-only audit trail behind every balance change.
// Entries are hash-chained per payee.
type LedgerEntry struct {
	ID           string         `gorm:"column:id;primaryKey" json:"id"`
	PayeeID      string         `gorm:"column:payee_id;index;not null" json:"payee_id"`
	Type         EntryType      `gorm:"column:type;not null" json:"type"`
	Amount       int64          `gorm:"column:amount;not null" json:"amount"`
	ReferenceID  string         `gorm:"column:reference_id;uniqueIndex" json:"reference_id"`
	Description  string         `gorm:"column:description" json:"description"`
	PreviousHash string         `gorm:"column:previous_hash" json:"previous_hash"`
	Hash         string         `gorm:"column:hash" json:"hash"`
	Metadata     datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (m *LedgerEntry) HashFields() map[string]string {
	return map[string]string{
		"id":            m.ID,
		"payee_id":      m.PayeeID,
		"type":          string(m.Type),
		"amount":        fmt.Sprintf("%d", m.Amount),
		"reference_id":  m.ReferenceID,
		"description":   m.Description,
		"created_at":    m.CreatedAt.UTC().Format(time.RFC3339Nano),
		"previous_hash": m.PreviousHash,
	}
}

func (m *LedgerEntry) GenerateHash() string {
	fields := m.HashFields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, fields[k]))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// PayoutRequest is owned by the ledger once created; only the ledger advances
// its status.
type PayoutRequest struct {
	ID            string        `gorm:"column:id;primaryKey" json:"id"`
	Code          string        `gorm:"column:code;index" json:"code"`
	PayeeID       string        `gorm:"column:payee_id;index;not null" json:"payee_id"`
	Amount        int64         `gorm:"column:amount;not null" json:"amount"`
	Status        RequestStatus `gorm:"column:status;index;default:'pending'" json:"status"`
	FailureReason string        `gorm:"column:failure_reason" json:"failure_reason,omitempty"`
	RequestedAt   time.Time     `gorm:"column:requested_at" json:"requested_at"`
	ProcessedAt   *time.Time    `gorm:"column:processed_at" json:"processed_at,omitempty"`
	UpdatedAt     time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Notification kinds emitted by the payout ledger.
const (
	KindPayoutRequested  = "payout.requested"
	KindPayoutProcessing = "payout.processing"
	KindPayoutCompleted  = "payout.completed"
	KindPayoutFailed     = "payout.failed"
	KindPayoutCanceled   = "payout.canceled"
)
