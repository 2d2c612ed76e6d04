package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storekeeper-backend/internal/domain"
)

func date(y int, m time.Month, d int) domain.Date {
	return domain.NewDate(y, m, d)
}

func TestDiffDays(t *testing.T) {
	t.Run("Same day", func(t *testing.T) {
		assert.Equal(t, 0, DiffDays(date(2024, 1, 1), date(2024, 1, 1)))
	})

	t.Run("Three days", func(t *testing.T) {
		assert.Equal(t, 3, DiffDays(date(2024, 1, 1), date(2024, 1, 4)))
	})

	t.Run("End before start takes magnitude", func(t *testing.T) {
		assert.Equal(t, 3, DiffDays(date(2024, 1, 4), date(2024, 1, 1)))
	})

	t.Run("Across a month boundary", func(t *testing.T) {
		assert.Equal(t, 31, DiffDays(date(2024, 1, 15), date(2024, 2, 15)))
	})
}

func TestPeriodCount(t *testing.T) {
	start := date(2024, 1, 1)

	tests := []struct {
		name     string
		end      domain.Date
		rateType domain.RateType
		expected int
	}{
		{"Daily same day", start, domain.RateTypeDaily, 0},
		{"Daily 3 days", date(2024, 1, 4), domain.RateTypeDaily, 3},
		{"Weekly exact week", date(2024, 1, 8), domain.RateTypeWeekly, 1},
		{"Weekly rounds up", date(2024, 1, 9), domain.RateTypeWeekly, 2},
		{"Weekly same day", start, domain.RateTypeWeekly, 0},
		{"Monthly exact 30 days", date(2024, 1, 31), domain.RateTypeMonthly, 1},
		{"Monthly rounds up", date(2024, 2, 1), domain.RateTypeMonthly, 2},
		{"Monthly same day", start, domain.RateTypeMonthly, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PeriodCount(start, tt.end, tt.rateType))
		})
	}

	t.Run("Monotonically non-decreasing as end moves later", func(t *testing.T) {
		for _, rt := range []domain.RateType{domain.RateTypeDaily, domain.RateTypeWeekly, domain.RateTypeMonthly} {
			prev := 0
			for i := 0; i <= 90; i++ {
				got := PeriodCount(start, start.AddDays(i), rt)
				assert.GreaterOrEqual(t, got, prev, "rate type %s day %d", rt, i)
				assert.GreaterOrEqual(t, got, 0)
				prev = got
			}
		}
	})
}

func TestLineTotal(t *testing.T) {
	t.Run("Rate x periods x quantity", func(t *testing.T) {
		got := LineTotal(decimal.NewFromInt(100), 3, 2)
		assert.True(t, got.Equal(decimal.NewFromInt(600)), "got %s", got)
	})

	t.Run("Rounded to two places", func(t *testing.T) {
		rate, _ := decimal.NewFromString("33.335")
		got := LineTotal(rate, 1, 1)
		assert.Equal(t, "33.34", got.StringFixed(2))
	})

	t.Run("Zero periods yields zero charge", func(t *testing.T) {
		got := LineTotal(decimal.NewFromInt(100), 0, 5)
		assert.True(t, got.IsZero())
	})
}

func TestSubtotal(t *testing.T) {
	t.Run("Rounds each line before summing", func(t *testing.T) {
		rate, _ := decimal.NewFromString("10.005")
		items := []domain.RentalItem{
			{Quantity: 1, RateType: domain.RateTypeDaily, RateAmount: rate},
			{Quantity: 1, RateType: domain.RateTypeDaily, RateAmount: rate},
		}
		// One day each: 10.01 + 10.01, not round(20.01).
		got := Subtotal(date(2024, 1, 1), date(2024, 1, 2), items)
		assert.Equal(t, "20.02", got.StringFixed(2))
	})

	t.Run("Mixed rate types", func(t *testing.T) {
		items := []domain.RentalItem{
			{Quantity: 2, RateType: domain.RateTypeDaily, RateAmount: decimal.NewFromInt(100)},
			{Quantity: 1, RateType: domain.RateTypeWeekly, RateAmount: decimal.NewFromInt(500)},
		}
		// 10 days: daily 100*10*2 = 2000, weekly ceil(10/7)=2 -> 500*2 = 1000.
		got := Subtotal(date(2024, 1, 1), date(2024, 1, 11), items)
		assert.Equal(t, "3000.00", got.StringFixed(2))
	})
}

func TestSuggestedLateFee(t *testing.T) {
	t.Run("One day late", func(t *testing.T) {
		got := SuggestedLateFee(3, 4)
		assert.Equal(t, "100.00", got.StringFixed(2))
	})

	t.Run("On time", func(t *testing.T) {
		assert.True(t, SuggestedLateFee(3, 3).IsZero())
	})

	t.Run("Early return", func(t *testing.T) {
		assert.True(t, SuggestedLateFee(3, 1).IsZero())
	})
}

func TestSettle(t *testing.T) {
	rental := &domain.Rental{
		StartDate:          date(2024, 1, 1),
		ExpectedReturnDate: date(2024, 1, 4),
		SecurityDeposit:    decimal.NewFromInt(50),
		Items: []domain.RentalItem{
			{Quantity: 2, RateType: domain.RateTypeDaily, RateAmount: decimal.NewFromInt(100)},
		},
	}

	t.Run("On-time full return with deposit back", func(t *testing.T) {
		s := Settle(rental, date(2024, 1, 4), decimal.Zero, decimal.Zero, true)
		assert.Equal(t, 3, s.ActualDays)
		assert.Equal(t, 3, s.ExpectedDays)
		assert.Equal(t, "600.00", s.ActualCharges.StringFixed(2))
		assert.Equal(t, "50.00", s.DepositOffset.StringFixed(2))
		assert.Equal(t, "550.00", s.FinalAmount.StringFixed(2))
	})

	t.Run("Deposit held", func(t *testing.T) {
		s := Settle(rental, date(2024, 1, 4), decimal.Zero, decimal.Zero, false)
		assert.True(t, s.DepositOffset.IsZero())
		assert.Equal(t, "600.00", s.FinalAmount.StringFixed(2))
	})

	t.Run("Negative final amount is a refund, not clamped", func(t *testing.T) {
		same := Settle(rental, date(2024, 1, 1), decimal.Zero, decimal.Zero, true)
		assert.True(t, same.ActualCharges.IsZero())
		assert.Equal(t, "-50.00", same.FinalAmount.StringFixed(2))
	})

	t.Run("Late fee and damage folded in", func(t *testing.T) {
		s := Settle(rental, date(2024, 1, 5), decimal.NewFromInt(100), decimal.NewFromInt(25), true)
		// 4 days * 100 * 2 = 800, + 100 + 25 - 50.
		assert.Equal(t, "875.00", s.FinalAmount.StringFixed(2))
	})
}
