package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/repository"
)

type saleRepository struct {
	db *sql.DB
}

func NewSaleRepository(db *sql.DB) repository.SaleRepository {
	return &saleRepository{db: db}
}

const saleColumns = `id, invoice_number, customer_id, user_id, subtotal, discount, tax, total,
	payment_status, payment_method, amount_paid, amount_due, notes, created_at, updated_at`

func scanSale(row interface{ Scan(...any) error }, s *domain.Sale) error {
	var method sql.NullString
	var notes sql.NullString
	err := row.Scan(&s.ID, &s.InvoiceNumber, &s.CustomerID, &s.UserID,
		&s.Subtotal, &s.Discount, &s.Tax, &s.Total,
		&s.PaymentStatus, &method, &s.AmountPaid, &s.AmountDue,
		&notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return err
	}
	s.PaymentMethod = domain.PaymentMethod(method.String)
	s.Notes = notes.String
	return nil
}

func (r *saleRepository) Create(ctx context.Context, s *domain.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `INSERT INTO sales (id, invoice_number, customer_id, user_id, subtotal, discount, tax, total,
		            payment_status, payment_method, amount_paid, amount_due, notes, created_at, updated_at)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
		_, err := tx.ExecContext(ctx, query, s.ID, s.InvoiceNumber, s.CustomerID, s.UserID,
			s.Subtotal, s.Discount, s.Tax, s.Total, s.PaymentStatus, nullString(string(s.PaymentMethod)),
			s.AmountPaid, s.AmountDue, nullString(s.Notes), s.CreatedAt, s.UpdatedAt)
		if err != nil {
			return err
		}

		for i := range s.Items {
			it := &s.Items[i]
			if it.ID == uuid.Nil {
				it.ID = uuid.New()
			}
			it.SaleID = s.ID
			it.CreatedAt = now

			query := `INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price, discount, total, created_at)
			          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
			if _, err := tx.ExecContext(ctx, query, it.ID, it.SaleID, it.ProductID,
				it.Quantity, it.UnitPrice, it.Discount, it.Total, it.CreatedAt); err != nil {
				return err
			}

			// Stock is taken inside the same transaction so an oversold line
			// aborts the whole sale.
			res, err := tx.ExecContext(ctx,
				`UPDATE products SET current_stock = current_stock - $1, updated_at = $2
				 WHERE id = $3 AND current_stock >= $1`,
				it.Quantity, now, it.ProductID)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return domain.NewValidationError("quantity",
					fmt.Sprintf("insufficient stock for product %s", it.ProductID))
			}
		}
		return nil
	})
	return wrapError("sale create", "sale", s.ID.String(), err)
}

func (r *saleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	s := &domain.Sale{}
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`
	if err := scanSale(r.db.QueryRowContext(ctx, query, id), s); err != nil {
		return nil, wrapError("sale get", "sale", id.String(), err)
	}

	items, err := r.loadItems(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	s.Items = items[id]
	return s, nil
}

// loadItems fetches the item lines for a batch of sales in one query, keyed
// by sale id.
func (r *saleRepository) loadItems(ctx context.Context, saleIDs []uuid.UUID) (map[uuid.UUID][]domain.SaleItem, error) {
	if len(saleIDs) == 0 {
		return nil, nil
	}
	query := `SELECT si.id, si.sale_id, si.product_id, si.quantity, si.unit_price, si.discount, si.total,
	            si.created_at, p.name, p.unit
	          FROM sale_items si
	          JOIN products p ON p.id = si.product_id
	          WHERE si.sale_id = ANY($1)
	          ORDER BY si.created_at`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(saleIDs))
	if err != nil {
		return nil, wrapError("sale items", "sale", "", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]domain.SaleItem, len(saleIDs))
	for rows.Next() {
		var it domain.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Quantity, &it.UnitPrice,
			&it.Discount, &it.Total, &it.CreatedAt, &it.ProductName, &it.ProductUnit); err != nil {
			return nil, wrapError("sale items", "sale", "", err)
		}
		items[it.SaleID] = append(items[it.SaleID], it)
	}
	return items, rows.Err()
}

func (r *saleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		// Put the sold quantities back before the items cascade away.
		rows, err := tx.QueryContext(ctx,
			`SELECT product_id, quantity FROM sale_items WHERE sale_id = $1`, id)
		if err != nil {
			return err
		}
		type line struct {
			productID uuid.UUID
			quantity  int
		}
		var lines []line
		for rows.Next() {
			var l line
			if err := rows.Scan(&l.productID, &l.quantity); err != nil {
				rows.Close()
				return err
			}
			lines = append(lines, l)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, l := range lines {
			if _, err := tx.ExecContext(ctx,
				`UPDATE products SET current_stock = current_stock + $1, updated_at = $2 WHERE id = $3`,
				l.quantity, now, l.productID); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	return wrapError("sale delete", "sale", id.String(), err)
}

func (r *saleRepository) List(ctx context.Context, filter repository.SaleFilter, page, pageSize int) ([]domain.Sale, int64, error) {
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
		and(fmt.Sprintf("invoice_number ILIKE $%d", len(args)))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		and(fmt.Sprintf("payment_status = $%d", len(args)))
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM sales`+where, args...).Scan(&total); err != nil {
		return nil, 0, wrapError("sale count", "sale", "", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM sales%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		saleColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, wrapError("sale list", "sale", "", err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		var s domain.Sale
		if err := scanSale(rows, &s); err != nil {
			return nil, 0, wrapError("sale list", "sale", "", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapError("sale list", "sale", "", err)
	}

	ids := make([]uuid.UUID, len(sales))
	for i := range sales {
		ids[i] = sales[i].ID
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range sales {
		sales[i].Items = items[sales[i].ID]
	}
	return sales, total, nil
}

// nullString maps empty strings to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
