package allocation

import (
	"errors"
	"testing"

	"packhouse-backend/internal/models"

	"github.com/google/uuid"
)

func TestSessionAddValidation(t *testing.T) {
	reg := testRegistry()
	intake := testIntake(t, 1, "2026-03-10", "100", "50")

	tests := []struct {
		name    string
		req     AllocationRequest
		wantErr error
	}{
		{
			name:    "zero quantity",
			req:     AllocationRequest{SubCommodity: models.SubCommodityAnh, Team: "To 1", Quantity: d("0")},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "negative quantity",
			req:     AllocationRequest{SubCommodity: models.SubCommodityAnh, Team: "To 1", Quantity: d("-5")},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown sub-commodity",
			req:     AllocationRequest{SubCommodity: "XX", Team: "To 1", Quantity: d("5")},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "missing team",
			req:     AllocationRequest{SubCommodity: models.SubCommodityAnh, Quantity: d("5")},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "expired stage window",
			req:     AllocationRequest{SubCommodity: models.SubCommodityAnh, Team: "To 3", Quantity: d("5")},
			wantErr: ErrNoEligibleStages,
		},
		{
			name:    "no stages for category",
			req:     AllocationRequest{SubCommodity: models.SubCommodityEm, Team: "To 2", Quantity: d("5")},
			wantErr: ErrNoEligibleStages,
		},
		{
			name: "valid request",
			req:  AllocationRequest{SubCommodity: models.SubCommodityAnh, Team: "To 1", Quantity: d("5")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(intake, reg, "kho1")
			warning, err := s.Add(tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Add: %v", err)
			}
			if warning != nil {
				t.Fatalf("unexpected warning: %v", warning)
			}
		})
	}
}

func TestSessionDuplicateTeamGuard(t *testing.T) {
	reg := testRegistry()
	intake := testIntake(t, 1, "2026-03-10", "100", "50")
	s := NewSession(intake, reg, "kho1")

	if _, err := s.Add(AllocationRequest{SubCommodity: models.SubCommodityAnh, Team: "To 1", Quantity: d("10")}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	// Same team, same sub-commodity: blocked within one session.
	if _, err := s.Add(AllocationRequest{SubCommodity: models.SubCommodityAnh, Team: "To 1", Quantity: d("5")}); !errors.Is(err, ErrDuplicateTeamRequest) {
		t.Fatalf("err = %v, want ErrDuplicateTeamRequest", err)
	}
	// Same team, other sub-commodity: fine.
	if _, err := s.Add(AllocationRequest{SubCommodity: models.SubCommodityEm, Team: "To 1", Quantity: d("5")}); err != nil {
		t.Fatalf("other sub-commodity: %v", err)
	}
}

func TestSessionAdvisoryThenHardBalance(t *testing.T) {
	reg := testRegistry()
	intake := testIntake(t, 1, "2026-03-10", "100", "0") // net 97

	s := NewSession(intake, reg, "kho1")
	if _, err := s.Add(AllocationRequest{SubCommodity: models.SubCommodityAnh, Team: "To 1", Quantity: d("60")}); err != nil {
		t.Fatalf("add 60: %v", err)
	}

	// The second request overruns: warned, but still queued.
	warning, err := s.Add(AllocationRequest{SubCommodity: models.SubCommodityAnh, Team: "To 2", Quantity: d("60")})
	if err != nil {
		t.Fatalf("add second 60: %v", err)
	}
	if warning == nil {
		t.Fatal("expected advisory balance warning")
	}
	if !warning.Requested.Equal(d("120")) || !warning.Available.Equal(d("97")) {
		t.Errorf("warning = requested %s available %s, want 120/97", warning.Requested, warning.Available)
	}

	// At save time the same overrun is a hard failure.
	err = s.Validate()
	var balErr *BalanceError
	if !errors.As(err, &balErr) {
		t.Fatalf("Validate err = %v, want *BalanceError", err)
	}
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestSessionToleranceAtBoundary(t *testing.T) {
	reg := testRegistry()
	intake := testIntake(t, 1, "2026-03-10", "100", "0") // net 97

	// Exactly net, and net + epsilon, both pass; beyond epsilon fails.
	for _, tt := range []struct {
		qty string
		ok  bool
	}{
		{qty: "97", ok: true},
		{qty: "97.01", ok: true},
		{qty: "97.02", ok: false},
	} {
		s := NewSession(intake, reg, "kho1")
		if _, err := s.Add(AllocationRequest{SubCommodity: models.SubCommodityAnh, Team: "To 1", Quantity: d(tt.qty)}); err != nil {
			t.Fatalf("add %s: %v", tt.qty, err)
		}
		err := s.Validate()
		if tt.ok && err != nil {
			t.Errorf("qty %s: Validate = %v, want ok", tt.qty, err)
		}
		if !tt.ok && !errors.Is(err, ErrInsufficientBalance) {
			t.Errorf("qty %s: Validate = %v, want ErrInsufficientBalance", tt.qty, err)
		}
	}
}

func TestSessionFinalizeFanOut(t *testing.T) {
	reg := testRegistry()
	intake := testIntake(t, 7, "2026-03-10", "100", "50")

	s := NewSession(intake, reg, "kho1")
	if _, err := s.Add(AllocationRequest{SubCommodity: models.SubCommodityAnh, Team: "To 1", Quantity: d("40"), Note: "dot 1"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.Add(AllocationRequest{SubCommodity: models.SubCommodityEm, Team: "To 1", Quantity: d("20")}); err != nil {
		t.Fatalf("add: %v", err)
	}

	res, err := s.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if res.IntakeID != 7 {
		t.Errorf("IntakeID = %d, want 7", res.IntakeID)
	}

	// To 1 has two ANH stages and one EM stage: 2 + 1 entries, one
	// allocation id per request, full quantity on every entry.
	if len(res.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(res.Entries))
	}
	ids := make(map[uuid.UUID]int)
	for _, e := range res.Entries {
		ids[e.AllocationID]++
		switch e.SubCommodity {
		case models.SubCommodityAnh:
			if !e.Quantity.Equal(d("40")) {
				t.Errorf("ANH entry quantity = %s, want full 40", e.Quantity)
			}
			if e.Note != "dot 1" {
				t.Errorf("note = %q, want operator note", e.Note)
			}
		case models.SubCommodityEm:
			if !e.Quantity.Equal(d("20")) {
				t.Errorf("EM entry quantity = %s, want full 20", e.Quantity)
			}
			if e.Note == "" {
				t.Error("EM note empty, want generated provenance")
			}
		}
		if !e.Amount.Equal(e.Quantity.Mul(e.UnitPrice)) {
			t.Errorf("amount %s != quantity*price for stage %s", e.Amount, e.StageName)
		}
		if e.CreatedBy != "kho1" {
			t.Errorf("created_by = %q", e.CreatedBy)
		}
	}
	if len(ids) != 2 {
		t.Errorf("allocation ids = %d, want 2 (one per request)", len(ids))
	}

	if !res.Deltas[models.SubCommodityAnh].Equal(d("40")) || !res.Deltas[models.SubCommodityEm].Equal(d("20")) {
		t.Errorf("deltas = %v", res.Deltas)
	}

	// The session is spent.
	if _, err := s.Add(AllocationRequest{SubCommodity: models.SubCommodityAnh, Team: "To 2", Quantity: d("1")}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Add after Finalize = %v, want ErrSessionClosed", err)
	}
	if _, err := s.Finalize(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("second Finalize = %v, want ErrSessionClosed", err)
	}
}

func TestSessionEmptyFinalize(t *testing.T) {
	s := NewSession(testIntake(t, 1, "2026-03-10", "100", "0"), testRegistry(), "kho1")
	if _, err := s.Finalize(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSessionAbsentSubCommodityHasNoBalance(t *testing.T) {
	reg := testRegistry()
	intake := testIntake(t, 1, "2026-03-10", "100", "0") // EM not delivered

	s := NewSession(intake, reg, "kho1")
	warning, err := s.Add(AllocationRequest{SubCommodity: models.SubCommodityEm, Team: "To 1", Quantity: d("5")})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if warning == nil {
		t.Fatal("expected warning: EM yard balance is zero")
	}
	if err := s.Validate(); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("Validate = %v, want ErrInsufficientBalance", err)
	}
}
