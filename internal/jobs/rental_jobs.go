package jobs

import (
	"context"

	"github.com/google/uuid"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/logger"
	"storekeeper-backend/internal/repository"
)

// MarkOverdueRentals flips open rentals past their due date to overdue. The
// due date is the next agreed return date when one is set, otherwise the
// expected return date. The rental engine itself never derives overdue; this
// job is the only writer of that status.
func (jr *JobRunner) MarkOverdueRentals() {
	jr.runWithRecovery("MarkOverdueRentals", func() {
		ctx := context.Background()

		query := `
			UPDATE rentals
			SET status = 'overdue',
			    updated_at = NOW()
			WHERE status IN ('active', 'partial_return')
			  AND COALESCE(next_return_date, expected_return_date) < $1
			RETURNING id, rental_number, customer_id
		`

		rows, err := jr.db.QueryContext(ctx, query, domain.Today())
		if err != nil {
			logger.Error("Failed to mark overdue rentals", "error", err)
			return
		}
		defer rows.Close()

		count := 0
		for rows.Next() {
			var id, customerID uuid.UUID
			var number string
			if err := rows.Scan(&id, &number, &customerID); err != nil {
				logger.Error("Failed to scan overdue rental", "error", err)
				continue
			}
			logger.Debug("Marked rental as overdue",
				"rental_id", id, "rental_number", number, "customer_id", customerID)
			count++
		}
		if err := rows.Err(); err != nil {
			logger.Error("Error iterating overdue rentals", "error", err)
			return
		}

		logger.Info("Marked rentals as overdue", "count", count)
	})
}

// SendReturnReminders emails every customer whose rental is due back
// tomorrow.
func (jr *JobRunner) SendReturnReminders() {
	jr.runWithRecovery("SendReturnReminders", func() {
		ctx := context.Background()
		tomorrow := domain.Today().AddDays(1)

		rentals, err := jr.store.RentalRepository.ListDueOn(ctx, tomorrow)
		if err != nil {
			logger.Error("Failed to list rentals due tomorrow", "error", err)
			return
		}

		sent := 0
		for i := range rentals {
			rental := &rentals[i]
			customer, err := jr.store.CustomerRepository.GetByID(ctx, rental.CustomerID)
			if err != nil {
				logger.Error("Failed to load customer for reminder",
					"rental_number", rental.RentalNumber, "error", err)
				continue
			}
			if err := jr.email.SendReturnReminder(ctx, customer, rental); err != nil {
				logger.Error("Failed to send return reminder",
					"rental_number", rental.RentalNumber, "error", err)
				continue
			}
			sent++
		}

		logger.Info("Return reminders sent", "due", len(rentals), "sent", sent)
	})
}

// SendOverdueNotices emails every customer holding an overdue rental.
func (jr *JobRunner) SendOverdueNotices() {
	jr.runWithRecovery("SendOverdueNotices", func() {
		ctx := context.Background()
		today := domain.Today()

		sent := 0
		for page := 1; ; page++ {
			rentals, _, err := jr.store.RentalRepository.List(ctx,
				repository.RentalFilter{Status: domain.RentalStatusOverdue}, page, 100)
			if err != nil {
				logger.Error("Failed to list overdue rentals", "error", err)
				return
			}
			if len(rentals) == 0 {
				break
			}

			for i := range rentals {
				rental := &rentals[i]
				due := rental.ExpectedReturnDate
				if rental.NextReturnDate.Valid {
					due = rental.NextReturnDate.Date
				}
				daysLate := today.DaysSince(due)
				if daysLate < 1 {
					continue
				}

				customer, err := jr.store.CustomerRepository.GetByID(ctx, rental.CustomerID)
				if err != nil {
					logger.Error("Failed to load customer for overdue notice",
						"rental_number", rental.RentalNumber, "error", err)
					continue
				}
				if err := jr.email.SendOverdueNotice(ctx, customer, rental, daysLate); err != nil {
					logger.Error("Failed to send overdue notice",
						"rental_number", rental.RentalNumber, "error", err)
					continue
				}
				sent++
			}
		}

		logger.Info("Overdue notices sent", "sent", sent)
	})
}
