package allocation

import (
	"fmt"

	"packhouse-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationRequest: operator input for one allocation event. A plain
// value object; nothing about the currently open screen or tab leaks into
// validation.
type AllocationRequest struct {
	SubCommodity models.SubCommodity
	Team         string
	Quantity     decimal.Decimal
	Note         string
}

// SessionState: Draft -> Validated -> Committed. Balance validation is
// advisory in Draft (the operator may keep editing past a warning) and
// hard at the Draft -> Validated transition.
type SessionState string

const (
	StateDraft     SessionState = "draft"
	StateValidated SessionState = "validated"
	StateCommitted SessionState = "committed"
)

// Session queues allocation requests against one intake event within one
// editing pass. Requests are checked as they are added; Validate re-checks
// the summed totals per sub-commodity before anything is persisted.
type Session struct {
	intake    models.IntakeEvent // snapshot at open time; commit re-reads
	registry  *Registry
	createdBy string

	state    SessionState
	requests []AllocationRequest
	fanouts  [][]models.WorkStage // per request, resolved at Add time
}

func NewSession(intake models.IntakeEvent, registry *Registry, createdBy string) *Session {
	return &Session{
		intake:    intake,
		registry:  registry,
		createdBy: createdBy,
		state:     StateDraft,
	}
}

func (s *Session) State() SessionState { return s.state }

// Add validates and queues one request.
//
// InvalidInput, NoEligibleStages and the duplicate-team guard reject the
// request outright. A balance overrun does NOT reject: the request is
// queued and a *BalanceError warning comes back, summarizing the total
// requested so far against the available yard balance. The overrun becomes
// a hard failure at Validate.
func (s *Session) Add(req AllocationRequest) (*BalanceError, error) {
	if s.state != StateDraft {
		return nil, ErrSessionClosed
	}
	if !req.SubCommodity.Valid() || req.Team == "" {
		return nil, ErrInvalidInput
	}
	if !req.Quantity.IsPositive() {
		return nil, ErrInvalidInput
	}
	for _, queued := range s.requests {
		if queued.Team == req.Team && queued.SubCommodity == req.SubCommodity {
			return nil, ErrDuplicateTeamRequest
		}
	}

	stages := s.registry.StagesFor(req.Team, req.SubCommodity, s.intake.Date)
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: team %s, %s on %s",
			ErrNoEligibleStages, req.Team, req.SubCommodity, s.intake.Date.Format("2006-01-02"))
	}

	s.requests = append(s.requests, req)
	s.fanouts = append(s.fanouts, stages)

	// Advisory balance check over everything queued for this sub-commodity.
	line := s.intake.Line(req.SubCommodity)
	total := s.requestedTotal(req.SubCommodity)
	if line.Yard.Sub(total).LessThan(Epsilon.Neg()) {
		return &BalanceError{
			SubCommodity: req.SubCommodity,
			Requested:    total,
			Available:    line.Yard,
		}, nil
	}
	return nil, nil
}

func (s *Session) requestedTotal(sc models.SubCommodity) decimal.Decimal {
	total := decimal.Zero
	for _, req := range s.requests {
		if req.SubCommodity == sc {
			total = total.Add(req.Quantity)
		}
	}
	return total
}

// Validate transitions Draft -> Validated. The summed quantities per
// sub-commodity are re-checked against the session's balance snapshot;
// any overrun is now a hard *BalanceError.
func (s *Session) Validate() error {
	if s.state != StateDraft {
		return ErrSessionClosed
	}
	if len(s.requests) == 0 {
		return fmt.Errorf("%w: session has no requests", ErrInvalidInput)
	}
	for _, sc := range models.SubCommodities {
		total := s.requestedTotal(sc)
		if total.IsZero() {
			continue
		}
		line := s.intake.Line(sc)
		if line.Yard.Sub(total).LessThan(Epsilon.Neg()) {
			return &BalanceError{
				SubCommodity: sc,
				Requested:    total,
				Available:    line.Yard,
			}
		}
	}
	s.state = StateValidated
	return nil
}

// Result: the expansion of a validated session. Entries carry one
// allocation id per request; every entry of a request carries the full
// requested quantity. The caller persists the result with Commit.
type Result struct {
	IntakeID uint
	Entries  []models.LedgerEntry
	Deltas   map[models.SubCommodity]decimal.Decimal // added to allocatedToDate
}

// Finalize expands the session into ledger entries and balance deltas and
// retires the session. Validate is run first if the caller has not done so.
func (s *Session) Finalize() (*Result, error) {
	if s.state == StateDraft {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	if s.state != StateValidated {
		return nil, ErrSessionClosed
	}

	res := &Result{
		IntakeID: s.intake.ID,
		Deltas:   make(map[models.SubCommodity]decimal.Decimal),
	}
	for i, req := range s.requests {
		allocID := uuid.New()
		note := req.Note
		if note == "" {
			note = fmt.Sprintf("vehicle %s, intake %s",
				s.intake.VehiclePlate, s.intake.Date.Format("2006-01-02"))
		}
		for _, stage := range s.fanouts[i] {
			res.Entries = append(res.Entries, models.LedgerEntry{
				AllocationID:  allocID,
				IntakeEventID: s.intake.ID,
				Date:          s.intake.Date,
				SubCommodity:  req.SubCommodity,
				Team:          req.Team,
				StageName:     stage.StageName,
				Quantity:      req.Quantity,
				UnitPrice:     stage.UnitPrice,
				Amount:        req.Quantity.Mul(stage.UnitPrice),
				Note:          note,
				CreatedBy:     s.createdBy,
			})
		}
		res.Deltas[req.SubCommodity] = res.Deltas[req.SubCommodity].Add(req.Quantity)
	}
	s.state = StateCommitted
	return res, nil
}
