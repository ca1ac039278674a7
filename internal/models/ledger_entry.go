package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry: one work-stage's credited quantity and amount for one
// allocation event. Append-only; there is no update or delete path.
//
// AllocationID groups the entries fanned out from one allocation request.
// Every entry in the group carries the full requested quantity: allocating
// X tons to a team credits X tons to each stage that team performs, each
// billed at its own rate.
type LedgerEntry struct {
	ID            uint            `gorm:"primaryKey"`
	AllocationID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	IntakeEventID uint            `gorm:"index;not null"`
	IntakeEvent   IntakeEvent     `gorm:"foreignKey:IntakeEventID"`
	Date          time.Time       `gorm:"index;not null"` // intake event date
	SubCommodity  SubCommodity    `gorm:"size:10;index;not null"`
	Team          string          `gorm:"size:50;index;not null"`
	StageName     string          `gorm:"size:100;not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(20,4);not null"` // copied from the stage at allocation time
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null"` // Quantity * UnitPrice
	Note          string          `gorm:"size:255"`                    // provenance, e.g. vehicle plate
	CreatedBy     string          `gorm:"size:100"`
	CreatedAt     time.Time
}
