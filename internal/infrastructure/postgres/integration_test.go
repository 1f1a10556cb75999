//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/trade-ham/marketplace-api/internal/application"
	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	"github.com/trade-ham/marketplace-api/internal/domain/repository"
	pginfra "github.com/trade-ham/marketplace-api/internal/infrastructure/postgres"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
)

func startPostgres(t *testing.T) *pginfra.Store {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("tradeham"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	require.NoError(t, err)
	m, err := migrate.NewWithDatabaseInstance("file://../../../db/migrations", "postgres", driver)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pginfra.NewPool(ctx, dsn, pginfra.PoolOptions{AppName: "tradeham-it", MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pginfra.NewStore(pool, nil)
}

func seed(t *testing.T, store *pginfra.Store, products int) (*entity.User, []*entity.Product) {
	t.Helper()
	ctx := context.Background()
	seller := &entity.User{Username: "seller", Nickname: "seller", Role: entity.RoleUser, Provider: entity.ProviderKakao}
	require.NoError(t, store.Users().Create(ctx, seller))
	var ps []*entity.Product
	for i := 1; i <= products; i++ {
		p := &entity.Product{Name: fmt.Sprintf("Product %d", i), Price: 1000, Status: entity.ProductStatusSell, SellerID: seller.ID}
		require.NoError(t, store.Products().Create(ctx, p))
		ps = append(ps, p)
	}
	return seller, ps
}

func buyers(t *testing.T, store *pginfra.Store, n int) []*entity.User {
	t.Helper()
	var out []*entity.User
	for i := 0; i < n; i++ {
		u := &entity.User{Username: fmt.Sprintf("buyer-%d", i), Role: entity.RoleUser, Provider: entity.ProviderNaver}
		require.NoError(t, store.Users().Create(context.Background(), u))
		out = append(out, u)
	}
	return out
}

func TestIntegration_ConcurrentPurchaseSingleWinner(t *testing.T) {
	store := startPostgres(t)
	seller, ps := seed(t, store, 1)
	bs := buyers(t, store, 6)
	svc := application.NewPurchaseService(store, store, nil, nil, nil, nil)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		denials int
	)
	for _, b := range bs {
		wg.Add(1)
		go func(buyerID int64) {
			defer wg.Done()
			_, err := svc.Purchase(context.Background(), ps[0].ID, buyerID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, apperror.ErrAccessDenied):
				denials++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(b.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, len(bs)-1, denials)

	p, err := store.Products().GetByID(context.Background(), ps[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProductStatusSoldOut, p.Status)
	require.NotNil(t, p.BuyerID)

	ns, err := store.Notifications().ListByUser(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.Len(t, ns, 1)
}

func TestIntegration_RowLockIsPerProduct(t *testing.T) {
	store := startPostgres(t)
	_, ps := seed(t, store, 2)
	ctx := context.Background()

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Do(ctx, func(tx repository.Repositories) error {
			if _, err := tx.Products().GetByIDForUpdate(ctx, ps[0].ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	// the other product is not blocked
	err := store.Do(ctx, func(tx repository.Repositories) error {
		_, err := tx.Products().GetByIDForUpdate(ctx, ps[1].ID)
		return err
	})
	require.NoError(t, err)

	// the locked product waits until the holder commits
	short, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	err = store.Do(short, func(tx repository.Repositories) error {
		_, err := tx.Products().GetByIDForUpdate(short, ps[0].ID)
		return err
	})
	require.Error(t, err)

	close(release)
	require.NoError(t, <-done)
}

func TestIntegration_SearchAndSellerListing(t *testing.T) {
	store := startPostgres(t)
	seller, _ := seed(t, store, 10)
	ctx := context.Background()

	found, err := store.Products().Search(ctx, "product")
	require.NoError(t, err)
	assert.Len(t, found, 10)
	for _, p := range found {
		assert.Equal(t, entity.ProductStatusSell, p.Status)
	}

	mine, err := store.Products().ListBySeller(ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, mine, 10)
	for _, p := range mine {
		require.NotNil(t, p.Seller)
		assert.Equal(t, seller.ID, p.Seller.ID)
	}
}
