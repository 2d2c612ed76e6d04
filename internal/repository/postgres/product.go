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

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, sku, category, unit, type, current_stock, min_stock_level,
	sale_price, rent_price_per_day, rent_price_per_week, rent_price_per_month, security_deposit,
	is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }, p *domain.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.Category, &p.Unit,
		&p.Type, &p.CurrentStock, &p.MinStockLevel, &p.SalePrice, &p.RentPricePerDay,
		&p.RentPricePerWeek, &p.RentPricePerMonth, &p.SecurityDeposit,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `INSERT INTO products (id, name, description, sku, category, unit, type, current_stock, min_stock_level,
	            sale_price, rent_price_per_day, rent_price_per_week, rent_price_per_month, security_deposit,
	            is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Description, p.SKU, p.Category,
		p.Unit, p.Type, p.CurrentStock, p.MinStockLevel, p.SalePrice, p.RentPricePerDay,
		p.RentPricePerWeek, p.RentPricePerMonth, p.SecurityDeposit, p.IsActive, p.CreatedAt, p.UpdatedAt)
	return wrapError("product create", "product", p.ID.String(), err)
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p := &domain.Product{}
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if err := scanProduct(r.db.QueryRowContext(ctx, query, id), p); err != nil {
		return nil, wrapError("product get", "product", id.String(), err)
	}
	return p, nil
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()
	query := `UPDATE products SET name=$1, description=$2, sku=$3, category=$4, unit=$5, type=$6,
	            current_stock=$7, min_stock_level=$8, sale_price=$9, rent_price_per_day=$10,
	            rent_price_per_week=$11, rent_price_per_month=$12, security_deposit=$13,
	            is_active=$14, updated_at=$15
	          WHERE id=$16`
	res, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.SKU, p.Category, p.Unit,
		p.Type, p.CurrentStock, p.MinStockLevel, p.SalePrice, p.RentPricePerDay,
		p.RentPricePerWeek, p.RentPricePerMonth, p.SecurityDeposit, p.IsActive, p.UpdatedAt, p.ID)
	if err != nil {
		return wrapError("product update", "product", p.ID.String(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("product", p.ID.String())
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return wrapError("product delete", "product", id.String(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewNotFoundError("product", id.String())
	}
	return nil
}

func (r *productRepository) List(ctx context.Context, filter repository.ProductFilter, page, pageSize int) ([]domain.Product, int64, error) {
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
		and(fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		and(fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		and(fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.ActiveOnly {
		and("is_active")
	}
	if filter.RentableOnly {
		and("is_active AND type IN ('rent', 'both')")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, wrapError("product count", "product", "", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, wrapError("product list", "product", "", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, wrapError("product list", "product", "", err)
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *productRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	query := `UPDATE products SET current_stock = current_stock + $1, updated_at = $2
	          WHERE id = $3 AND current_stock + $1 >= 0`
	res, err := r.db.ExecContext(ctx, query, delta, time.Now().UTC(), id)
	if err != nil {
		return wrapError("product stock adjust", "product", id.String(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either the product is missing or the adjustment would go negative;
		// disambiguate for the caller.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return domain.NewValidationError("quantity", "insufficient stock")
	}
	return nil
}
