package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/repository"
)

type rentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

const rentalColumns = `id, rental_number, customer_id, user_id, start_date, expected_return_date,
	actual_return_date, status, subtotal, security_deposit, total_charges, late_fee, damage_charges,
	amount_paid, amount_due, deposit_returned, return_payment_method, return_payment_amount,
	return_notes, next_return_date, notes, created_at, updated_at`

func scanRental(row interface{ Scan(...any) error }, rt *domain.Rental, extra ...any) error {
	var method, returnNotes, notes sql.NullString
	targets := []any{&rt.ID, &rt.RentalNumber, &rt.CustomerID, &rt.UserID,
		&rt.StartDate, &rt.ExpectedReturnDate, &rt.ActualReturnDate, &rt.Status,
		&rt.Subtotal, &rt.SecurityDeposit, &rt.TotalCharges, &rt.LateFee, &rt.DamageCharges,
		&rt.AmountPaid, &rt.AmountDue, &rt.DepositReturned,
		&method, &rt.ReturnPaymentAmount, &returnNotes, &rt.NextReturnDate,
		&notes, &rt.CreatedAt, &rt.UpdatedAt}
	if err := row.Scan(append(targets, extra...)...); err != nil {
		return err
	}
	rt.ReturnPaymentMethod = domain.PaymentMethod(method.String)
	rt.ReturnNotes = returnNotes.String
	rt.Notes = notes.String
	return nil
}

// querier is the subset of *sql.DB and *sql.Tx the item loader needs.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// loadRentalItems fetches the item lines for a batch of rentals in one query,
// keyed by rental id.
func loadRentalItems(ctx context.Context, q querier, rentalIDs []uuid.UUID) (map[uuid.UUID][]domain.RentalItem, error) {
	if len(rentalIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ri.id, ri.rental_id, ri.product_id, ri.quantity, ri.rate_type, ri.rate_amount,
	            ri.total_days, ri.total, ri.quantity_returned, ri.return_date, ri.created_at,
	            p.name, p.unit
	          FROM rental_items ri
	          JOIN products p ON p.id = ri.product_id
	          WHERE ri.rental_id = ANY($1)
	          ORDER BY ri.created_at`
	rows, err := q.QueryContext(ctx, query, pq.Array(rentalIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]domain.RentalItem, len(rentalIDs))
	for rows.Next() {
		var it domain.RentalItem
		if err := rows.Scan(&it.ID, &it.RentalID, &it.ProductID, &it.Quantity, &it.RateType,
			&it.RateAmount, &it.TotalDays, &it.Total, &it.QuantityReturned, &it.ReturnDate,
			&it.CreatedAt, &it.ProductName, &it.ProductUnit); err != nil {
			return nil, err
		}
		items[it.RentalID] = append(items[it.RentalID], it)
	}
	return items, rows.Err()
}

func insertRentalItems(ctx context.Context, tx *sql.Tx, rt *domain.Rental, now time.Time) error {
	for i := range rt.Items {
		it := &rt.Items[i]
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.RentalID = rt.ID
		it.CreatedAt = now

		query := `INSERT INTO rental_items (id, rental_id, product_id, quantity, rate_type, rate_amount,
		            total_days, total, quantity_returned, return_date, created_at)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		if _, err := tx.ExecContext(ctx, query, it.ID, it.RentalID, it.ProductID, it.Quantity,
			it.RateType, it.RateAmount, it.TotalDays, it.Total, it.QuantityReturned,
			it.ReturnDate, it.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	now := time.Now().UTC()
	rt.CreatedAt = now
	rt.UpdatedAt = now

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `INSERT INTO rentals (` + rentalColumns + `)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
		_, err := tx.ExecContext(ctx, query, rt.ID, rt.RentalNumber, rt.CustomerID, rt.UserID,
			rt.StartDate, rt.ExpectedReturnDate, rt.ActualReturnDate, rt.Status,
			rt.Subtotal, rt.SecurityDeposit, rt.TotalCharges, rt.LateFee, rt.DamageCharges,
			rt.AmountPaid, rt.AmountDue, rt.DepositReturned,
			nullString(string(rt.ReturnPaymentMethod)), rt.ReturnPaymentAmount,
			nullString(rt.ReturnNotes), rt.NextReturnDate, nullString(rt.Notes),
			rt.CreatedAt, rt.UpdatedAt)
		if err != nil {
			return err
		}
		return insertRentalItems(ctx, tx, rt, now)
	})
	return wrapError("rental create", "rental", rt.ID.String(), err)
}

func (r *rentalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	rt := &domain.Rental{}
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	if err := scanRental(r.db.QueryRowContext(ctx, query, id), rt); err != nil {
		return nil, wrapError("rental get", "rental", id.String(), err)
	}

	items, err := loadRentalItems(ctx, r.db, []uuid.UUID{id})
	if err != nil {
		return nil, wrapError("rental items", "rental", id.String(), err)
	}
	rt.Items = items[id]
	return rt, nil
}

func (r *rentalRepository) Replace(ctx context.Context, rt *domain.Rental) error {
	now := time.Now().UTC()
	rt.UpdatedAt = now

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `UPDATE rentals SET rental_number=$1, customer_id=$2, user_id=$3, start_date=$4,
		            expected_return_date=$5, actual_return_date=$6, status=$7, subtotal=$8,
		            security_deposit=$9, total_charges=$10, late_fee=$11, damage_charges=$12,
		            amount_paid=$13, amount_due=$14, deposit_returned=$15, return_payment_method=$16,
		            return_payment_amount=$17, return_notes=$18, next_return_date=$19, notes=$20,
		            updated_at=$21
		          WHERE id=$22`
		res, err := tx.ExecContext(ctx, query, rt.RentalNumber, rt.CustomerID, rt.UserID,
			rt.StartDate, rt.ExpectedReturnDate, rt.ActualReturnDate, rt.Status,
			rt.Subtotal, rt.SecurityDeposit, rt.TotalCharges, rt.LateFee, rt.DamageCharges,
			rt.AmountPaid, rt.AmountDue, rt.DepositReturned,
			nullString(string(rt.ReturnPaymentMethod)), rt.ReturnPaymentAmount,
			nullString(rt.ReturnNotes), rt.NextReturnDate, nullString(rt.Notes),
			rt.UpdatedAt, rt.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM rental_items WHERE rental_id = $1`, rt.ID); err != nil {
			return err
		}
		return insertRentalItems(ctx, tx, rt, now)
	})
	return wrapError("rental replace", "rental", rt.ID.String(), err)
}

func (r *rentalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RentalStatus) error {
	query := `UPDATE rentals SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return wrapError("rental status", "rental", id.String(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("rental", id.String())
	}
	return nil
}

func (r *rentalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rentals WHERE id = $1`, id)
	if err != nil {
		return wrapError("rental delete", "rental", id.String(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("rental", id.String())
	}
	return nil
}

func (r *rentalRepository) List(ctx context.Context, filter repository.RentalFilter, page, pageSize int) ([]domain.Rental, int64, error) {
	where := ""
	args := []any{}
	and := func(cond string) {
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		and(fmt.Sprintf("(r.rental_number ILIKE $%d OR c.name ILIKE $%d OR c.phone ILIKE $%d)",
			len(args), len(args), len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		and(fmt.Sprintf("r.status = $%d", len(args)))
	}

	from := ` FROM rentals r LEFT JOIN customers c ON c.id = r.customer_id`

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, wrapError("rental count", "rental", "", err)
	}

	cols := prefixColumns("r", rentalColumns)
	query := fmt.Sprintf(`SELECT %s, c.name%s%s ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d`,
		cols, from, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, wrapError("rental list", "rental", "", err)
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		var rt domain.Rental
		var customerName sql.NullString
		if err := scanRental(rows, &rt, &customerName); err != nil {
			return nil, 0, wrapError("rental list", "rental", "", err)
		}
		rt.CustomerName = customerName.String
		rentals = append(rentals, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapError("rental list", "rental", "", err)
	}

	ids := make([]uuid.UUID, len(rentals))
	for i := range rentals {
		ids[i] = rentals[i].ID
	}
	items, err := loadRentalItems(ctx, r.db, ids)
	if err != nil {
		return nil, 0, wrapError("rental list items", "rental", "", err)
	}
	for i := range rentals {
		rentals[i].Items = items[rentals[i].ID]
	}
	return rentals, total, nil
}

func (r *rentalRepository) ListDueOn(ctx context.Context, due domain.Date) ([]domain.Rental, error) {
	// A partially returned rental is chased on its next agreed date, not the
	// original one.
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE status IN ('active', 'partial_return')
	            AND COALESCE(next_return_date, expected_return_date) = $1
	          ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, due)
	if err != nil {
		return nil, wrapError("rental due list", "rental", "", err)
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		var rt domain.Rental
		if err := scanRental(rows, &rt); err != nil {
			return nil, wrapError("rental due list", "rental", "", err)
		}
		rentals = append(rentals, rt)
	}
	return rentals, rows.Err()
}

func (r *rentalRepository) InTransaction(ctx context.Context, fn func(tx repository.RentalTxRepository) error) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&rentalTxRepository{tx: tx})
	})
}

type rentalTxRepository struct {
	tx *sql.Tx
}

func (r *rentalTxRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	rt := &domain.Rental{}
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1 FOR UPDATE`
	if err := scanRental(r.tx.QueryRowContext(ctx, query, id), rt); err != nil {
		return nil, wrapError("rental lock", "rental", id.String(), err)
	}

	items, err := loadRentalItems(ctx, r.tx, []uuid.UUID{id})
	if err != nil {
		return nil, wrapError("rental items", "rental", id.String(), err)
	}
	rt.Items = items[id]
	return rt, nil
}

func (r *rentalTxRepository) SaveReturn(ctx context.Context, rt *domain.Rental) error {
	rt.UpdatedAt = time.Now().UTC()

	query := `UPDATE rentals SET status=$1, actual_return_date=$2, total_charges=$3, late_fee=$4,
	            damage_charges=$5, amount_paid=$6, amount_due=$7, deposit_returned=$8,
	            return_payment_method=$9, return_payment_amount=$10, return_notes=$11,
	            next_return_date=$12, updated_at=$13
	          WHERE id=$14`
	res, err := r.tx.ExecContext(ctx, query, rt.Status, rt.ActualReturnDate, rt.TotalCharges,
		rt.LateFee, rt.DamageCharges, rt.AmountPaid, rt.AmountDue, rt.DepositReturned,
		nullString(string(rt.ReturnPaymentMethod)), rt.ReturnPaymentAmount,
		nullString(rt.ReturnNotes), rt.NextReturnDate, rt.UpdatedAt, rt.ID)
	if err != nil {
		return wrapError("return save", "rental", rt.ID.String(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("rental", rt.ID.String())
	}

	for i := range rt.Items {
		it := &rt.Items[i]
		if _, err := r.tx.ExecContext(ctx,
			`UPDATE rental_items SET quantity_returned = $1, return_date = $2 WHERE id = $3`,
			it.QuantityReturned, it.ReturnDate, it.ID); err != nil {
			return wrapError("return save", "rental item", it.ID.String(), err)
		}
	}
	return nil
}

// prefixColumns qualifies each comma-separated column with a table alias.
func prefixColumns(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}
