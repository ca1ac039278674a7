package allocation

import (
	"sort"
	"time"

	"packhouse-backend/internal/models"
)

// Registry: read-only snapshot of the work-stage configuration, taken per
// request. The allocation engine never writes configuration; it only
// filters by team, category and effective window.
type Registry struct {
	stages []models.WorkStage
}

func NewRegistry(stages []models.WorkStage) *Registry {
	return &Registry{stages: stages}
}

// StagesFor returns the fan-out set for one team/sub-commodity on one
// date: every stage the team performs on that category whose effective
// window contains asOf (inclusive on both ends). An empty result is not
// an error; it means the team cannot be an allocation target that day.
func (r *Registry) StagesFor(team string, sc models.SubCommodity, asOf time.Time) []models.WorkStage {
	var out []models.WorkStage
	for _, s := range r.stages {
		if s.Team == team && s.SubCommodity == sc && s.ActiveOn(asOf) {
			out = append(out, s)
		}
	}
	return out
}

// EligibleTeams lists the teams that have at least one active stage for
// the sub-commodity on the given date, sorted by team name.
func (r *Registry) EligibleTeams(sc models.SubCommodity, asOf time.Time) []string {
	seen := make(map[string]bool)
	var teams []string
	for _, s := range r.stages {
		if s.SubCommodity == sc && s.ActiveOn(asOf) && !seen[s.Team] {
			seen[s.Team] = true
			teams = append(teams, s.Team)
		}
	}
	sort.Strings(teams)
	return teams
}
