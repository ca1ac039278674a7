package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkStage: one priced unit of work a team performs on a sub-commodity,
// valid only inside its effective date window. Configuration data; the
// allocation engine only ever reads these.
type WorkStage struct {
	ID            uint            `gorm:"primaryKey"`
	Team          string          `gorm:"size:50;index;not null"` // team identifier, e.g. "To 1"
	StageName     string          `gorm:"size:100;not null"`      // e.g. "phan loai", "ep kien"
	SubCommodity  SubCommodity    `gorm:"size:10;index;not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Unit          string          `gorm:"size:20;not null"` // ton, kg
	Staffing      string          `gorm:"size:255"`         // free-text crew description
	EffectiveFrom time.Time       `gorm:"index;not null"`
	EffectiveTo   time.Time       `gorm:"index;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ActiveOn: the stage is usable for work dated asOf (window is inclusive
// on both ends).
func (w WorkStage) ActiveOn(asOf time.Time) bool {
	return !asOf.Before(w.EffectiveFrom) && !asOf.After(w.EffectiveTo)
}
