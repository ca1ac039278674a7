package allocation

import (
	"testing"

	"packhouse-backend/internal/models"

	"github.com/google/uuid"
)

func entry(allocID uuid.UUID, intakeID uint, sc models.SubCommodity, team, stageName, qty, price string) models.LedgerEntry {
	return models.LedgerEntry{
		AllocationID:  allocID,
		IntakeEventID: intakeID,
		SubCommodity:  sc,
		Team:          team,
		StageName:     stageName,
		Quantity:      d(qty),
		UnitPrice:     d(price),
		Amount:        d(qty).Mul(d(price)),
	}
}

func TestClassifyUnallocated(t *testing.T) {
	intake := testIntake(t, 1, "2026-03-10", "100", "0")
	status, summary := Classify(intake, nil)
	if status != StatusUnallocated {
		t.Errorf("status = %s, want UNALLOCATED", status)
	}
	if len(summary) != 0 {
		t.Errorf("summary = %v, want empty", summary)
	}

	// Entries for other intakes don't count.
	other := entry(uuid.New(), 99, models.SubCommodityAnh, "To 1", "phan loai", "10", "1000")
	status, _ = Classify(intake, []models.LedgerEntry{other})
	if status != StatusUnallocated {
		t.Errorf("status = %s, want UNALLOCATED", status)
	}
}

func TestClassifyPartialAndFull(t *testing.T) {
	intake := testIntake(t, 1, "2026-03-10", "100", "0") // net 97
	alloc1 := uuid.New()
	entries := []models.LedgerEntry{
		entry(alloc1, 1, models.SubCommodityAnh, "To 1", "phan loai", "40", "1200"),
		entry(alloc1, 1, models.SubCommodityAnh, "To 1", "ep kien", "40", "800"),
	}
	intake.Anh.Allocated = d("40")
	intake.Anh.Yard = d("57")

	status, summary := Classify(intake, entries)
	if status != StatusPartial {
		t.Errorf("status = %s, want PARTIAL", status)
	}
	if len(summary) != 1 {
		t.Fatalf("summary rows = %d, want 1", len(summary))
	}
	// 40 once, not 80: the fan-out must not double-count.
	if !summary[0].Quantity.Equal(d("40")) {
		t.Errorf("quantity = %s, want 40", summary[0].Quantity)
	}
	if !summary[0].Amount.Equal(d("40").Mul(d("2000"))) {
		t.Errorf("amount = %s, want both stages billed", summary[0].Amount)
	}

	// Exhaust the balance: residue inside tolerance still counts as FULL.
	alloc2 := uuid.New()
	entries = append(entries,
		entry(alloc2, 1, models.SubCommodityAnh, "To 2", "phan loai", "56.995", "1100"))
	intake.Anh.Allocated = d("96.995")
	intake.Anh.Yard = d("0.005")

	status, summary = Classify(intake, entries)
	if status != StatusFull {
		t.Errorf("status = %s, want FULL (0.005 within tolerance)", status)
	}
	if len(summary) != 2 {
		t.Errorf("summary rows = %d, want 2", len(summary))
	}
}

func TestClassifyFullNeedsEverySubCommodity(t *testing.T) {
	intake := testIntake(t, 1, "2026-03-10", "100", "50")
	intake.Anh.Allocated = d("97")
	intake.Anh.Yard = d("0")

	entries := []models.LedgerEntry{
		entry(uuid.New(), 1, models.SubCommodityAnh, "To 1", "phan loai", "97", "1200"),
	}

	// ANH exhausted but EM untouched: still PARTIAL.
	status, _ := Classify(intake, entries)
	if status != StatusPartial {
		t.Errorf("status = %s, want PARTIAL while EM has balance", status)
	}

	intake.Em.Allocated = d("48.5")
	intake.Em.Yard = d("0")
	entries = append(entries,
		entry(uuid.New(), 1, models.SubCommodityEm, "To 1", "phan loai", "48.5", "950"))
	status, _ = Classify(intake, entries)
	if status != StatusFull {
		t.Errorf("status = %s, want FULL", status)
	}
}

func TestClassifyDistinctAllocationsSameQuantity(t *testing.T) {
	// Two separate 20-ton allocations to the same team must both count;
	// the grouping key is the allocation id, not (team, quantity).
	intake := testIntake(t, 1, "2026-03-10", "100", "0")
	intake.Anh.Allocated = d("40")
	intake.Anh.Yard = d("57")

	a1, a2 := uuid.New(), uuid.New()
	entries := []models.LedgerEntry{
		entry(a1, 1, models.SubCommodityAnh, "To 1", "phan loai", "20", "1200"),
		entry(a1, 1, models.SubCommodityAnh, "To 1", "ep kien", "20", "800"),
		entry(a2, 1, models.SubCommodityAnh, "To 1", "phan loai", "20", "1200"),
		entry(a2, 1, models.SubCommodityAnh, "To 1", "ep kien", "20", "800"),
	}

	_, summary := Classify(intake, entries)
	if len(summary) != 1 {
		t.Fatalf("summary rows = %d, want 1", len(summary))
	}
	if !summary[0].Quantity.Equal(d("40")) {
		t.Errorf("quantity = %s, want 40 (two events of 20)", summary[0].Quantity)
	}
}

func TestClassifySortsByTeamThenSubCommodity(t *testing.T) {
	intake := testIntake(t, 1, "2026-03-10", "100", "50")
	entries := []models.LedgerEntry{
		entry(uuid.New(), 1, models.SubCommodityEm, "To 2", "phan loai", "5", "900"),
		entry(uuid.New(), 1, models.SubCommodityAnh, "To 2", "phan loai", "5", "1100"),
		entry(uuid.New(), 1, models.SubCommodityAnh, "To 1", "phan loai", "5", "1200"),
	}
	_, summary := Classify(intake, entries)
	if len(summary) != 3 {
		t.Fatalf("summary rows = %d, want 3", len(summary))
	}
	if summary[0].Team != "To 1" || summary[1].SubCommodity != models.SubCommodityAnh || summary[2].SubCommodity != models.SubCommodityEm {
		t.Errorf("order = %v", summary)
	}
}
