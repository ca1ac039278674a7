package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer: supplier/customer master data.
type Customer struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	Address   string `gorm:"size:255"`
	Phone     string `gorm:"size:50"`
	TaxCode   string `gorm:"size:50"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductSpec: finished-goods specification (dimensions, paper grade).
type ProductSpec struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	Dimension string `gorm:"size:100"` // LxWxH in mm
	Grade     string `gorm:"size:50"`  // paper grade / flute
	Unit      string `gorm:"size:20;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contract: supply contract between a customer and the plant.
type Contract struct {
	ID            uint            `gorm:"primaryKey"`
	CustomerID    uint            `gorm:"index;not null"`
	Customer      Customer        `gorm:"foreignKey:CustomerID"`
	ProductSpecID uint            `gorm:"index;not null"`
	ProductSpec   ProductSpec     `gorm:"foreignKey:ProductSpecID"`
	ContractNo    string          `gorm:"size:50;not null;uniqueIndex"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	SignedDate    time.Time       `gorm:"index;not null"`
	Note          string          `gorm:"size:255"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FinishedGood: produced goods entering the finished-goods store.
type FinishedGood struct {
	ID            uint            `gorm:"primaryKey"`
	ProductSpecID uint            `gorm:"index;not null"`
	ProductSpec   ProductSpec     `gorm:"foreignKey:ProductSpecID"`
	Date          time.Time       `gorm:"index;not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Note          string          `gorm:"size:255"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
