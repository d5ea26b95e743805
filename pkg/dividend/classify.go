package dividend

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Classify labels the most recent record of series against the one before it.
// Amounts are compared exactly; no tolerance is applied.
func Classify(series Series) Verdict {
	if len(series) == 0 {
		return Verdict{Status: StatusSuspension}
	}

	last := series[len(series)-1]
	lastAmount := last.Amount
	date := last.Date
	if len(series) == 1 {
		return Verdict{
			Status: StatusNoChange,
			Last:   &lastAmount,
			Date:   &date,
		}
	}

	prevAmount := series[len(series)-2].Amount
	status := StatusNoChange
	switch decimal.NewFromFloat(lastAmount).Cmp(decimal.NewFromFloat(prevAmount)) {
	case 1:
		status = StatusIncrease
	case -1:
		status = StatusCut
	}
	return Verdict{
		Status:   status,
		Last:     &lastAmount,
		Previous: &prevAmount,
		Date:     &date,
	}
}

// ChangePct reports the percentage change from Previous to Last, rounded to
// two places. ok is false when either amount is absent or Previous is zero.
func (v Verdict) ChangePct() (pct decimal.Decimal, ok bool) {
	if v.Last == nil || v.Previous == nil {
		return decimal.Zero, false
	}
	prev := decimal.NewFromFloat(*v.Previous)
	if prev.IsZero() {
		return decimal.Zero, false
	}
	last := decimal.NewFromFloat(*v.Last)
	return last.Sub(prev).Div(prev).Mul(hundred).Round(2), true
}
