package intake

import (
	"packhouse-backend/internal/allocation"
	"packhouse-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TxRunner runs each commit unit as one database transaction with the
// intake row locked, so the balance re-validation cannot race another
// operator's save.
type TxRunner struct {
	DB *gorm.DB
}

func (r TxRunner) InTx(fn func(allocation.Store) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{tx: tx})
	})
}

type gormStore struct {
	tx *gorm.DB
}

func (s *gormStore) IntakeForUpdate(id uint) (*models.IntakeEvent, error) {
	var e models.IntakeEvent
	if err := s.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *gormStore) HasAllocation(id uuid.UUID) (bool, error) {
	var count int64
	err := s.tx.Model(&models.LedgerEntry{}).
		Where("allocation_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (s *gormStore) AllocatedTotals(intakeID uint) (map[models.SubCommodity]decimal.Decimal, error) {
	// One representative row per allocation id: the fan-out repeats the
	// quantity on every stage entry and must not be summed naively.
	type row struct {
		SubCommodity models.SubCommodity
		Total        decimal.Decimal
	}
	var rows []row
	err := s.tx.Raw(`
		SELECT sub_commodity, COALESCE(SUM(quantity), 0) AS total
		FROM (
			SELECT DISTINCT allocation_id, sub_commodity, quantity
			FROM ledger_entries
			WHERE intake_event_id = ?
		) grouped
		GROUP BY sub_commodity
	`, intakeID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[models.SubCommodity]decimal.Decimal, len(rows))
	for _, r := range rows {
		totals[r.SubCommodity] = r.Total
	}
	return totals, nil
}

func (s *gormStore) CreateEntries(entries []models.LedgerEntry) error {
	// Chunking is the commit step's concern; each call here is one chunk.
	return s.tx.Create(&entries).Error
}

func (s *gormStore) UpdateIntake(e *models.IntakeEvent) error {
	return s.tx.Save(e).Error
}
