package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubCommodity: the two independently tracked packaging categories inside
// one intake event.
type SubCommodity string

const (
	SubCommodityAnh SubCommodity = "ANH"
	SubCommodityEm  SubCommodity = "EM"
)

// SubCommodities in display order.
var SubCommodities = []SubCommodity{SubCommodityAnh, SubCommodityEm}

func (s SubCommodity) Valid() bool {
	return s == SubCommodityAnh || s == SubCommodityEm
}

// IntakeLine: quantities of one sub-commodity within an intake event.
// Yard is stored signed; responses clamp it to >= 0 for display.
type IntakeLine struct {
	Gross     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"gross"`
	Deduction decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"deduction"`
	Net       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"net"`
	Allocated decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"allocated"`
	Yard      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"yard"`
}

// Present: the sub-commodity was actually delivered on this vehicle.
func (l IntakeLine) Present() bool {
	return l.Gross.IsPositive()
}

// IntakeEvent: one vehicle delivery of raw packaging material.
type IntakeEvent struct {
	ID           uint      `gorm:"primaryKey"`
	Date         time.Time `gorm:"index;not null"` // delivery date
	VehiclePlate string    `gorm:"size:20;not null"`
	CustomerName string    `gorm:"size:100;not null"` // supplier/customer shown on the docket
	Note         string    `gorm:"size:255"`
	CreatedBy    string    `gorm:"size:100"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Anh IntakeLine `gorm:"embedded;embeddedPrefix:anh_" json:"anh"`
	Em  IntakeLine `gorm:"embedded;embeddedPrefix:em_" json:"em"`
}

// Line returns the mutable line for one sub-commodity.
func (e *IntakeEvent) Line(sc SubCommodity) *IntakeLine {
	if sc == SubCommodityEm {
		return &e.Em
	}
	return &e.Anh
}
