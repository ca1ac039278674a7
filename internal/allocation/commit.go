package allocation

import (
	"fmt"

	"packhouse-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommitChunkSize caps one persistence call while writing ledger entries.
const CommitChunkSize = 20

// Store is the persistence boundary the commit step runs against. The
// methods are called inside one unit of work supplied by a Runner.
type Store interface {
	// IntakeForUpdate re-reads the intake with a write lock held for the
	// rest of the unit of work.
	IntakeForUpdate(id uint) (*models.IntakeEvent, error)
	// HasAllocation reports whether entries for the allocation id are
	// already durable (replay detection).
	HasAllocation(id uuid.UUID) (bool, error)
	// AllocatedTotals sums the committed ledger per sub-commodity for one
	// intake, counting each allocation id once regardless of fan-out.
	AllocatedTotals(intakeID uint) (map[models.SubCommodity]decimal.Decimal, error)
	// CreateEntries persists one chunk of ledger entries.
	CreateEntries(entries []models.LedgerEntry) error
	// UpdateIntake persists the new allocated/yard balances.
	UpdateIntake(intake *models.IntakeEvent) error
}

// Runner executes one unit of work. The Postgres implementation wraps a
// database transaction; test stores run the function directly.
type Runner interface {
	InTx(fn func(Store) error) error
}

// Commit persists a finalized session result as one logical unit.
//
// The yard balance is re-validated at write time against a freshly locked
// intake row, not against whatever the operator saw when the allocation
// screen was opened: two operators racing on the same intake cannot
// together over-allocate. The intake's allocated totals are rederived from
// the ledger itself (one representative quantity per allocation id), which
// makes the merge idempotent: retrying after a PartialFailureError writes
// only the missing entries and converges the balances.
func Commit(r Runner, res *Result) error {
	if res == nil || len(res.Entries) == 0 {
		return fmt.Errorf("%w: nothing to commit", ErrInvalidInput)
	}
	return r.InTx(func(s Store) error {
		intake, err := s.IntakeForUpdate(res.IntakeID)
		if err != nil {
			return fmt.Errorf("re-reading intake %d: %w", res.IntakeID, err)
		}

		committed, err := s.AllocatedTotals(res.IntakeID)
		if err != nil {
			return fmt.Errorf("summing committed ledger: %w", err)
		}

		pending, pendingTotals, err := pendingGroups(s, res.Entries)
		if err != nil {
			return err
		}

		// Hard balance check against the fresh state (CAS semantics).
		for sc, qty := range pendingTotals {
			line := intake.Line(sc)
			available := line.Net.Sub(committed[sc])
			if available.Sub(qty).LessThan(Epsilon.Neg()) {
				return &BalanceError{
					SubCommodity: sc,
					Requested:    qty,
					Available:    available,
				}
			}
		}

		wrote := false
		for _, group := range pending {
			for start := 0; start < len(group); start += CommitChunkSize {
				end := start + CommitChunkSize
				if end > len(group) {
					end = len(group)
				}
				if err := s.CreateEntries(group[start:end]); err != nil {
					return &PartialFailureError{EntriesWritten: wrote, Err: err}
				}
				wrote = true
			}
		}

		// Balances follow the ledger, not the other way around.
		for _, sc := range models.SubCommodities {
			line := intake.Line(sc)
			line.Allocated = committed[sc].Add(pendingTotals[sc])
			line.Yard = line.Net.Sub(line.Allocated)
		}
		if err := s.UpdateIntake(intake); err != nil {
			return &PartialFailureError{EntriesWritten: true, Err: err}
		}
		return nil
	})
}

// pendingGroups splits the result entries by allocation id and drops the
// groups that already exist in the store. Returns the surviving groups and
// their per-sub-commodity quantity totals (one representative per group).
func pendingGroups(s Store, entries []models.LedgerEntry) ([][]models.LedgerEntry, map[models.SubCommodity]decimal.Decimal, error) {
	byAlloc := make(map[uuid.UUID][]models.LedgerEntry)
	var order []uuid.UUID
	for _, e := range entries {
		if _, ok := byAlloc[e.AllocationID]; !ok {
			order = append(order, e.AllocationID)
		}
		byAlloc[e.AllocationID] = append(byAlloc[e.AllocationID], e)
	}

	var groups [][]models.LedgerEntry
	totals := make(map[models.SubCommodity]decimal.Decimal)
	for _, id := range order {
		exists, err := s.HasAllocation(id)
		if err != nil {
			return nil, nil, fmt.Errorf("checking allocation %s: %w", id, err)
		}
		if exists {
			continue // already durable from an earlier attempt
		}
		group := byAlloc[id]
		groups = append(groups, group)
		rep := group[0]
		totals[rep.SubCommodity] = totals[rep.SubCommodity].Add(rep.Quantity)
	}
	return groups, totals, nil
}
