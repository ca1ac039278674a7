package allocation

import (
	"testing"
	"time"

	"packhouse-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic("bad decimal literal: " + s)
	}
	return v
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic("bad date literal: " + s)
	}
	return t
}

// testIntake builds an intake with derived fields computed, the way the
// intake handlers do it.
func testIntake(t *testing.T, id uint, day string, grossAnh, grossEm string) models.IntakeEvent {
	t.Helper()
	e := models.IntakeEvent{
		ID:           id,
		Date:         date(day),
		VehiclePlate: "51C-123.45",
		CustomerName: "Bao Bi Minh Phat",
	}
	if err := RecomputeLine(&e.Anh, d(grossAnh)); err != nil {
		t.Fatalf("recompute anh: %v", err)
	}
	if err := RecomputeLine(&e.Em, d(grossEm)); err != nil {
		t.Fatalf("recompute em: %v", err)
	}
	return e
}

func stage(team, name string, sc models.SubCommodity, price, from, to string) models.WorkStage {
	return models.WorkStage{
		Team:          team,
		StageName:     name,
		SubCommodity:  sc,
		UnitPrice:     d(price),
		Unit:          "ton",
		EffectiveFrom: date(from),
		EffectiveTo:   date(to),
	}
}

// memStore: in-memory Store + Runner. It is deliberately a plain two-call
// store with no rollback, so commit tests can exercise the partial-failure
// and replay paths; each InTx call is a single-threaded critical section.
type memStore struct {
	intakes map[uint]*models.IntakeEvent
	entries []models.LedgerEntry

	createCalls  int
	failCreateAt int // fail the Nth CreateEntries call (1-based), 0 = never
	failUpdate   bool
}

func newMemStore(intakes ...models.IntakeEvent) *memStore {
	m := &memStore{intakes: make(map[uint]*models.IntakeEvent)}
	for _, e := range intakes {
		cp := e
		m.intakes[e.ID] = &cp
	}
	return m
}

func (m *memStore) InTx(fn func(Store) error) error { return fn(m) }

func (m *memStore) IntakeForUpdate(id uint) (*models.IntakeEvent, error) {
	e, ok := m.intakes[id]
	if !ok {
		return nil, ErrInvalidInput
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) HasAllocation(id uuid.UUID) (bool, error) {
	for _, e := range m.entries {
		if e.AllocationID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) AllocatedTotals(intakeID uint) (map[models.SubCommodity]decimal.Decimal, error) {
	totals := make(map[models.SubCommodity]decimal.Decimal)
	counted := make(map[uuid.UUID]bool)
	for _, e := range m.entries {
		if e.IntakeEventID != intakeID || counted[e.AllocationID] {
			continue
		}
		counted[e.AllocationID] = true
		totals[e.SubCommodity] = totals[e.SubCommodity].Add(e.Quantity)
	}
	return totals, nil
}

func (m *memStore) CreateEntries(entries []models.LedgerEntry) error {
	m.createCalls++
	if m.failCreateAt > 0 && m.createCalls == m.failCreateAt {
		return errDown
	}
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memStore) UpdateIntake(intake *models.IntakeEvent) error {
	if m.failUpdate {
		return errDown
	}
	cp := *intake
	m.intakes[intake.ID] = &cp
	return nil
}

var errDown = &storeDownError{}

type storeDownError struct{}

func (*storeDownError) Error() string { return "data service unavailable" }
