package allocation

import (
	"testing"

	"packhouse-backend/internal/models"
)

func testRegistry() *Registry {
	return NewRegistry([]models.WorkStage{
		stage("To 1", "phan loai", models.SubCommodityAnh, "120000", "2026-01-01", "2026-06-30"),
		stage("To 1", "ep kien", models.SubCommodityAnh, "80000", "2026-01-01", "2026-06-30"),
		stage("To 1", "phan loai", models.SubCommodityEm, "95000", "2026-01-01", "2026-06-30"),
		stage("To 2", "phan loai", models.SubCommodityAnh, "110000", "2026-01-01", "2026-03-31"),
		stage("To 3", "boc xep", models.SubCommodityAnh, "60000", "2025-01-01", "2025-12-31"), // expired
	})
}

func TestStagesFor(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		name  string
		team  string
		sc    models.SubCommodity
		asOf  string
		count int
	}{
		{name: "two stages in window", team: "To 1", sc: models.SubCommodityAnh, asOf: "2026-03-10", count: 2},
		{name: "category filter", team: "To 1", sc: models.SubCommodityEm, asOf: "2026-03-10", count: 1},
		{name: "window start inclusive", team: "To 2", sc: models.SubCommodityAnh, asOf: "2026-01-01", count: 1},
		{name: "window end inclusive", team: "To 2", sc: models.SubCommodityAnh, asOf: "2026-03-31", count: 1},
		{name: "after window", team: "To 2", sc: models.SubCommodityAnh, asOf: "2026-04-01", count: 0},
		{name: "expired config", team: "To 3", sc: models.SubCommodityAnh, asOf: "2026-03-10", count: 0},
		{name: "unknown team", team: "To 9", sc: models.SubCommodityAnh, asOf: "2026-03-10", count: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.StagesFor(tt.team, tt.sc, date(tt.asOf))
			if len(got) != tt.count {
				t.Errorf("StagesFor(%s, %s, %s) = %d stages, want %d",
					tt.team, tt.sc, tt.asOf, len(got), tt.count)
			}
			for _, s := range got {
				if s.Team != tt.team || s.SubCommodity != tt.sc {
					t.Errorf("stray stage in result: %+v", s)
				}
			}
		})
	}
}

func TestEligibleTeams(t *testing.T) {
	reg := testRegistry()

	teams := reg.EligibleTeams(models.SubCommodityAnh, date("2026-03-10"))
	want := []string{"To 1", "To 2"}
	if len(teams) != len(want) {
		t.Fatalf("teams = %v, want %v", teams, want)
	}
	for i := range want {
		if teams[i] != want[i] {
			t.Fatalf("teams = %v, want %v", teams, want)
		}
	}

	// To 2's window closed in March; only To 1 remains in April.
	teams = reg.EligibleTeams(models.SubCommodityAnh, date("2026-04-15"))
	if len(teams) != 1 || teams[0] != "To 1" {
		t.Fatalf("teams = %v, want [To 1]", teams)
	}

	if got := reg.EligibleTeams(models.SubCommodityEm, date("2025-06-01")); len(got) != 0 {
		t.Fatalf("teams = %v, want none", got)
	}
}
