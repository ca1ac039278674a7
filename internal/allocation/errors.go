package allocation

import (
	"errors"
	"fmt"

	"packhouse-backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidInput: non-positive or malformed request data. Rejected
	// before any I/O.
	ErrInvalidInput = errors.New("invalid allocation input")

	// ErrNoEligibleStages: the team has no work stage configured for the
	// sub-commodity that is effective on the intake date.
	ErrNoEligibleStages = errors.New("no eligible work stages")

	// ErrInsufficientBalance: requested quantity exceeds the remaining
	// yard balance. Advisory while editing, hard at commit.
	ErrInsufficientBalance = errors.New("insufficient yard balance")

	// ErrDuplicateTeamRequest: the same team already has a pending request
	// for the same sub-commodity in this session. A team can receive more
	// allocations for the same sub-commodity later, in a separate session.
	ErrDuplicateTeamRequest = errors.New("team already queued for this sub-commodity")

	// ErrSessionClosed: the session was already finalized.
	ErrSessionClosed = errors.New("allocation session already finalized")
)

// BalanceError carries the requested-vs-available detail for an
// ErrInsufficientBalance, so the operator sees exactly how far over the
// request went.
type BalanceError struct {
	SubCommodity models.SubCommodity
	Requested    decimal.Decimal // total requested for the sub-commodity
	Available    decimal.Decimal // yard balance at validation time
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("insufficient yard balance for %s: requested %s, available %s",
		e.SubCommodity, e.Requested.String(), e.Available.String())
}

func (e *BalanceError) Unwrap() error { return ErrInsufficientBalance }

// PartialFailureError: the two halves of a commit (ledger entries, intake
// balance update) diverged on a store that cannot run them in one
// transaction. Commit is retryable; the half that already landed is
// detected by allocation id and skipped on replay.
type PartialFailureError struct {
	EntriesWritten bool // ledger entries were durably written
	IntakeUpdated  bool // intake balances were durably written
	Err            error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("allocation commit diverged (entries written: %v, intake updated: %v): %v",
		e.EntriesWritten, e.IntakeUpdated, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }
