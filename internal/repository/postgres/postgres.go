package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"storekeeper-backend/internal/domain"
	"storekeeper-backend/internal/repository"
)

// uniqueViolation is the Postgres error code for unique-constraint failures.
const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
	repository.CustomerRepository
	repository.ProductRepository
	repository.UserRepository
	repository.SaleRepository
	repository.RentalRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                 db,
		CustomerRepository: NewCustomerRepository(db),
		ProductRepository:  NewProductRepository(db),
		UserRepository:     NewUserRepository(db),
		SaleRepository:     NewSaleRepository(db),
		RentalRepository:   NewRentalRepository(db),
	}
}

// DB exposes the underlying pool for callers that manage its lifecycle.
func (s *Store) DB() *sql.DB { return s.db }

// wrapError translates driver errors into domain error kinds: missing rows
// become not-found, unique violations become conflicts, everything else is a
// persistence error.
func wrapError(op, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError(resource, id)
	}
	// Domain errors raised inside a transaction pass through untouched.
	var ve *domain.ValidationError
	var nfe *domain.NotFoundError
	var ce *domain.ConflictError
	if errors.As(err, &ve) || errors.As(err, &nfe) || errors.As(err, &ce) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.NewConflictError(resource, "duplicate value for "+pqErr.Constraint)
	}
	return domain.NewPersistenceError(op, err)
}

// inTx runs fn inside a transaction, committing on nil and rolling back on
// error or panic.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}
