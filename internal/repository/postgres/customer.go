package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/repository"
)

type customerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, name, email, phone, address, city, state, pincode, notes, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }, c *domain.Customer) error {
	return row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.City,
		&c.State, &c.Pincode, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
}

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `INSERT INTO customers (id, name, email, phone, address, city, state, pincode, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Email, c.Phone,
		c.Address, c.City, c.State, c.Pincode, c.Notes, c.CreatedAt, c.UpdatedAt)
	return wrapError("customer create", "customer", c.ID.String(), err)
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	c := &domain.Customer{}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	err := scanCustomer(r.db.QueryRowContext(ctx, query, id), c)
	if err != nil {
		return nil, wrapError("customer get", "customer", id.String(), err)
	}
	return c, nil
}

func (r *customerRepository) Update(ctx context.Context, c *domain.Customer) error {
	c.UpdatedAt = time.Now().UTC()
	query := `UPDATE customers SET name=$1, email=$2, phone=$3, address=$4, city=$5, state=$6, pincode=$7, notes=$8, updated_at=$9 WHERE id=$10`
	res, err := r.db.ExecContext(ctx, query, c.Name, c.Email, c.Phone, c.Address,
		c.City, c.State, c.Pincode, c.Notes, c.UpdatedAt, c.ID)
	if err != nil {
		return wrapError("customer update", "customer", c.ID.String(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("customer", c.ID.String())
	}
	return nil
}

func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return wrapError("customer delete", "customer", id.String(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("customer", id.String())
	}
	return nil
}

func (r *customerRepository) List(ctx context.Context, filter repository.CustomerFilter, page, pageSize int) ([]domain.Customer, int64, error) {
	base := `FROM customers`
	args := []any{}
	if filter.Search != "" {
		base += ` WHERE name ILIKE $1 OR phone ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+filter.Search+"%")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) `+base, args...).Scan(&total); err != nil {
		return nil, 0, wrapError("customer count", "customer", "", err)
	}

	query := fmt.Sprintf(`SELECT %s %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		customerColumns, base, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, wrapError("customer list", "customer", "", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, 0, wrapError("customer list", "customer", "", err)
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}
