package allocation

import (
	"testing"
)

func TestComputeNet(t *testing.T) {
	tests := []struct {
		name          string
		gross         string
		wantDeduction string
		wantNet       string
	}{
		{name: "round hundred", gross: "100", wantDeduction: "3", wantNet: "97"},
		{name: "zero means not delivered", gross: "0", wantDeduction: "0", wantNet: "0"},
		{name: "small load", gross: "1.5", wantDeduction: "0.05", wantNet: "1.45"},
		{name: "deduction rounds to 2dp", gross: "10.555", wantDeduction: "0.32", wantNet: "10.235"},
		{name: "typical truck", gross: "12.34", wantDeduction: "0.37", wantNet: "11.97"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deduction, net, err := ComputeNet(d(tt.gross))
			if err != nil {
				t.Fatalf("ComputeNet(%s): %v", tt.gross, err)
			}
			if !deduction.Equal(d(tt.wantDeduction)) {
				t.Errorf("deduction = %s, want %s", deduction, tt.wantDeduction)
			}
			if !net.Equal(d(tt.wantNet)) {
				t.Errorf("net = %s, want %s", net, tt.wantNet)
			}
			// net + deduction must reproduce gross within tolerance
			if diff := net.Add(deduction).Sub(d(tt.gross)).Abs(); diff.GreaterThan(Epsilon) {
				t.Errorf("net+deduction diverges from gross by %s", diff)
			}
		})
	}
}

func TestComputeNetRejectsNegative(t *testing.T) {
	if _, _, err := ComputeNet(d("-1")); err != ErrInvalidInput {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestRecomputeLineRederivesYard(t *testing.T) {
	intake := testIntake(t, 1, "2026-03-10", "100", "0")
	line := &intake.Anh

	if !line.Net.Equal(d("97")) || !line.Yard.Equal(d("97")) {
		t.Fatalf("fresh line = net %s yard %s, want 97/97", line.Net, line.Yard)
	}

	// An edit after a 40-ton allocation recomputes from scratch, keeping
	// the allocated total and rederiving the yard balance.
	line.Allocated = d("40")
	if err := RecomputeLine(line, d("80")); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if !line.Deduction.Equal(d("2.4")) || !line.Net.Equal(d("77.6")) {
		t.Errorf("after edit: deduction %s net %s, want 2.4/77.6", line.Deduction, line.Net)
	}
	if !line.Yard.Equal(d("37.6")) {
		t.Errorf("yard = %s, want 37.6", line.Yard)
	}

	// Lowering gross below the allocated total leaves a signed negative
	// yard; callers decide whether to reject the edit.
	if err := RecomputeLine(line, d("30")); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if !line.Yard.IsNegative() {
		t.Errorf("yard = %s, want negative", line.Yard)
	}
}

func TestRecomputeLineNotIncremental(t *testing.T) {
	intake := testIntake(t, 1, "2026-03-10", "10.555", "0")
	// Re-entering the same gross must be a no-op, not a second deduction.
	before := intake.Anh
	if err := RecomputeLine(&intake.Anh, d("10.555")); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if !intake.Anh.Net.Equal(before.Net) || !intake.Anh.Deduction.Equal(before.Deduction) {
		t.Errorf("recompute drifted: %+v -> %+v", before, intake.Anh)
	}
}
