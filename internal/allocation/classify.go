package allocation

import (
	"sort"

	"packhouse-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status: display state of an intake event's allocation progress.
type Status string

const (
	StatusUnallocated Status = "UNALLOCATED"
	StatusPartial     Status = "PARTIAL"
	StatusFull        Status = "FULL"
)

// TeamSummary: allocated quantity and billed amount for one team and
// sub-commodity. Quantity counts each allocation event once; Amount sums
// every fanned-out stage entry, since each stage bills independently.
type TeamSummary struct {
	Team         string              `json:"team"`
	SubCommodity models.SubCommodity `json:"sub_commodity"`
	Quantity     decimal.Decimal     `json:"quantity"`
	Amount       decimal.Decimal     `json:"amount"`
}

// Classify derives the three-state allocation status of an intake from its
// linked ledger entries, plus the per-team rollup for display.
//
// The rollup de-duplicates by allocation id, not by stage: one allocation
// of X tons to a team with three stages is X tons allocated, not 3X.
func Classify(intake models.IntakeEvent, entries []models.LedgerEntry) (Status, []TeamSummary) {
	type key struct {
		team string
		sc   models.SubCommodity
	}
	sums := make(map[key]*TeamSummary)
	counted := make(map[uuid.UUID]bool)
	linked := false

	for _, e := range entries {
		if e.IntakeEventID != intake.ID {
			continue
		}
		linked = true
		k := key{team: e.Team, sc: e.SubCommodity}
		s, ok := sums[k]
		if !ok {
			s = &TeamSummary{Team: e.Team, SubCommodity: e.SubCommodity}
			sums[k] = s
		}
		if !counted[e.AllocationID] {
			counted[e.AllocationID] = true
			s.Quantity = s.Quantity.Add(e.Quantity)
		}
		s.Amount = s.Amount.Add(e.Amount)
	}

	summaries := make([]TeamSummary, 0, len(sums))
	for _, s := range sums {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Team != summaries[j].Team {
			return summaries[i].Team < summaries[j].Team
		}
		return summaries[i].SubCommodity < summaries[j].SubCommodity
	})

	if !linked {
		return StatusUnallocated, summaries
	}

	// FULL when every delivered sub-commodity is exhausted within tolerance.
	for _, sc := range models.SubCommodities {
		line := intake.Line(sc)
		if line.Net.IsPositive() && line.Yard.GreaterThan(Epsilon) {
			return StatusPartial, summaries
		}
	}
	return StatusFull, summaries
}
