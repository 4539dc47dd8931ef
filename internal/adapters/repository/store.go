package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/salesflow/core/internal/ports"
)

// queryer is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx, letting the
// same repository code run inside or outside a transaction.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Store implements ports.Store over a Postgres database. The zero-tx Store
// runs each call in autocommit mode; WithinTx derives a Store whose
// repositories share one transaction.
type Store struct {
	db *sqlx.DB
	q  queryer
}

// NewStore creates a Store bound to the given database.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Tasks() ports.TaskRepository                 { return &TaskRepository{q: s.q} }
func (s *Store) Activities() ports.ActivityRepository       { return &ActivityRepository{q: s.q} }
func (s *Store) Offers() ports.OfferRepository              { return &OfferRepository{q: s.q} }
func (s *Store) TaskLists() ports.TaskListRepository        { return &TaskListRepository{q: s.q} }
func (s *Store) Users() ports.UserRepository                { return &UserRepository{q: s.q} }
func (s *Store) Notifications() ports.NotificationRepository { return &NotificationRepository{q: s.q} }
func (s *Store) TaskContacts() ports.TaskContactRepository  { return &TaskContactRepository{q: s.q} }
func (s *Store) Accounts() ports.AccountService             { return &AccountAdapter{q: s.q} }

// WithinTx runs fn against a transactional view of the store. A nested call
// joins the enclosing transaction instead of opening a new one.
func (s *Store) WithinTx(ctx context.Context, fn func(ports.Store) error) error {
	if _, ok := s.q.(*sqlx.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback transaction: %v (original error: %w)", rollbackErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
