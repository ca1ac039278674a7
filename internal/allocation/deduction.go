package allocation

import (
	"packhouse-backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// DeductionRate: fixed 3% handling loss on gross intake quantity.
	DeductionRate = decimal.NewFromFloat(0.03)

	// Epsilon: rounding tolerance on balance checks, 0.01 ton.
	Epsilon = decimal.NewFromFloat(0.01)
)

// ComputeNet applies the handling deduction to a gross intake quantity.
// deduction = round(gross * 0.03, 2); net = gross - deduction.
// A zero gross yields zeros (the sub-commodity was not delivered);
// a negative gross is ErrInvalidInput.
func ComputeNet(gross decimal.Decimal) (deduction, net decimal.Decimal, err error) {
	if gross.IsNegative() {
		return decimal.Zero, decimal.Zero, ErrInvalidInput
	}
	if gross.IsZero() {
		return decimal.Zero, decimal.Zero, nil
	}
	deduction = gross.Mul(DeductionRate).Round(2)
	net = gross.Sub(deduction)
	return deduction, net, nil
}

// RecomputeLine rewrites one intake line from a new gross quantity. Both
// derived fields are recomputed from scratch, never incrementally, and the
// yard balance is rederived against whatever has already been allocated.
func RecomputeLine(line *models.IntakeLine, gross decimal.Decimal) error {
	deduction, net, err := ComputeNet(gross)
	if err != nil {
		return err
	}
	line.Gross = gross
	line.Deduction = deduction
	line.Net = net
	line.Yard = net.Sub(line.Allocated)
	return nil
}
