// Package billing holds the pure rental charge calculations. Nothing here
// touches storage or the clock; services feed in dates and rate snapshots and
// persist the results.
package billing

import (
	"github.com/shopspring/decimal"

	"storekeeper-backend/internal/domain"
)

const (
	daysPerWeek  = 7
	daysPerMonth = 30 // fixed approximation, not calendar-aware
)

// lateFeePerDay is the suggested late fee per day past the expected return,
// in rupees. The figure is a suggestion surfaced to the operator and can be
// overridden on the return form.
var lateFeePerDay = decimal.NewFromInt(100)

// DiffDays returns the magnitude of the whole-day difference between two
// dates. An end date earlier than the start yields the absolute value rather
// than an error; callers that need strict ordering validate before calling.
func DiffDays(start, end domain.Date) int {
	days := end.DaysSince(start)
	if days < 0 {
		days = -days
	}
	return days
}

// PeriodCount converts the day span between start and end into billable
// periods for the given rate type. Weekly and monthly periods round up, so a
// 8-day span bills 2 weeks and a 31-day span bills 2 months. A same-day span
// yields zero periods for every rate type.
func PeriodCount(start, end domain.Date, rateType domain.RateType) int {
	days := DiffDays(start, end)
	switch rateType {
	case domain.RateTypeWeekly:
		return ceilDiv(days, daysPerWeek)
	case domain.RateTypeMonthly:
		return ceilDiv(days, daysPerMonth)
	default:
		return days
	}
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

// LineTotal computes rate x periods x quantity rounded to currency scale.
func LineTotal(rateAmount decimal.Decimal, periodCount, quantity int) decimal.Decimal {
	return rateAmount.
		Mul(decimal.NewFromInt(int64(periodCount))).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2)
}

// ItemCharge computes one rental line's charge for the span start..end using
// the line's rate snapshot and its full originally rented quantity. Billing
// is time-based: a partially returned line still bills its full quantity for
// the elapsed span.
func ItemCharge(start, end domain.Date, item *domain.RentalItem) decimal.Decimal {
	periods := PeriodCount(start, end, item.RateType)
	return LineTotal(item.RateAmount, periods, item.Quantity)
}

// Subtotal sums the per-line charges for the span start..end. Each line total
// is rounded independently before summing so the aggregate reconciles with
// the stored line totals.
func Subtotal(start, end domain.Date, items []domain.RentalItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(ItemCharge(start, end, &items[i]))
	}
	return total
}

// SuggestedLateFee returns the advisory late fee for a return past the
// expected date: 100 per extra day, zero when on time or early.
func SuggestedLateFee(expectedDays, actualDays int) decimal.Decimal {
	if actualDays <= expectedDays {
		return decimal.Zero
	}
	return lateFeePerDay.Mul(decimal.NewFromInt(int64(actualDays - expectedDays)))
}

// Settlement is the final reconciliation computed at return time.
type Settlement struct {
	ActualDays    int             `json:"actual_days"`
	ExpectedDays  int             `json:"expected_days"`
	ActualCharges decimal.Decimal `json:"actual_charges"`
	LateFee       decimal.Decimal `json:"late_fee"`
	DamageCharges decimal.Decimal `json:"damage_charges"`
	DepositOffset decimal.Decimal `json:"deposit_offset"`
	// FinalAmount is positive when the customer owes money and negative when
	// a refund is due. Negative values are meaningful and never clamped.
	FinalAmount decimal.Decimal `json:"final_amount"`
}

// Settle recomputes a rental's charges against the actual return date and
// folds in late fee, damage charges and the deposit offset.
func Settle(r *domain.Rental, returnDate domain.Date, lateFee, damageCharges decimal.Decimal, depositReturned bool) Settlement {
	actual := Subtotal(r.StartDate, returnDate, r.Items)
	offset := decimal.Zero
	if depositReturned {
		offset = r.SecurityDeposit
	}
	return Settlement{
		ActualDays:    DiffDays(r.StartDate, returnDate),
		ExpectedDays:  DiffDays(r.StartDate, r.ExpectedReturnDate),
		ActualCharges: actual,
		LateFee:       lateFee,
		DamageCharges: damageCharges,
		DepositOffset: offset,
		FinalAmount:   actual.Add(lateFee).Add(damageCharges).Sub(offset),
	}
}
