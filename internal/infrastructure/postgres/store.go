package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/internal/domain/repository"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner is a DBTX that can open transactions.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store hands out pool-bound repositories and runs units of work.
type Store struct {
	db     TxBeginner
	logger *logrus.Logger
}

func NewStore(db TxBeginner, logger *logrus.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Users() repository.UserRepository       { return NewUserRepository(s.db) }
func (s *Store) Products() repository.ProductRepository { return NewProductRepository(s.db) }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository {
	return NewRefreshTokenRepository(s.db)
}
func (s *Store) Notifications() repository.NotificationRepository {
	return NewNotificationRepository(s.db)
}

// Do begins a transaction, runs fn with transaction-bound repositories and
// commits on nil. Any error or panic from fn rolls the transaction back.
func (s *Store) Do(ctx context.Context, fn func(tx repository.Repositories) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(txRepositories{tx: tx}); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && s.logger != nil {
			s.logger.WithError(rbErr).Warn("rollback failed")
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txRepositories struct {
	tx pgx.Tx
}

func (r txRepositories) Users() repository.UserRepository       { return NewUserRepository(r.tx) }
func (r txRepositories) Products() repository.ProductRepository { return NewProductRepository(r.tx) }
func (r txRepositories) RefreshTokens() repository.RefreshTokenRepository {
	return NewRefreshTokenRepository(r.tx)
}
func (r txRepositories) Notifications() repository.NotificationRepository {
	return NewNotificationRepository(r.tx)
}

var (
	_ repository.UnitOfWork   = (*Store)(nil)
	_ repository.Repositories = (*Store)(nil)
	_ repository.Repositories = txRepositories{}
)
