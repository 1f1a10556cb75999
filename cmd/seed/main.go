package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/trade-ham/marketplace-api/config"
	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	"github.com/trade-ham/marketplace-api/internal/domain/repository"
	pginfra "github.com/trade-ham/marketplace-api/internal/infrastructure/postgres"
	"github.com/trade-ham/marketplace-api/internal/infrastructure/search"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
	"github.com/trade-ham/marketplace-api/pkg/helpers"
)

const seedProducts = 10

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
		AppName:     cfg.AppName,
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		MaxConnLife: cfg.DBMaxConnLife,
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	store := pginfra.NewStore(pool, logger)

	var seller *entity.User
	var products []*entity.Product
	err = store.Do(ctx, func(tx repository.Repositories) error {
		u, err := ensureSeller(ctx, tx.Users())
		if err != nil {
			return err
		}
		seller = u
		for i := 1; i <= seedProducts; i++ {
			p := &entity.Product{
				Name:        fmt.Sprintf("Product %d", i),
				Description: fmt.Sprintf("Seeded product number %d", i),
				Price:       int64(i) * 1000,
				Status:      entity.ProductStatusSell,
				SellerID:    seller.ID,
			}
			if err := tx.Products().Create(ctx, p); err != nil {
				return fmt.Errorf("create %s: %w", p.Name, err)
			}
			products = append(products, p)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	fmt.Printf("seeded seller id=%d with %d products\n", seller.ID, len(products))

	// search index is optional for local runs
	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.WithError(err).Warn("elasticsearch unavailable; products not indexed")
		return
	}
	index := search.NewProductIndex(es, cfg.ESProductsIndex, logger)
	if err := index.EnsureIndex(ctx); err != nil {
		logger.WithError(err).Warn("ensure index failed; products not indexed")
		return
	}
	for _, p := range products {
		if err := index.Index(ctx, p); err != nil {
			logger.WithError(err).WithField("product_id", p.ID).Warn("index failed")
		}
	}
}

func ensureSeller(ctx context.Context, users repository.UserRepository) (*entity.User, error) {
	u, err := users.GetByProviderUsername(ctx, entity.ProviderKakao, "seed-seller")
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	u = &entity.User{
		Email:    "seller@trade-ham.local",
		Username: "seed-seller",
		Nickname: "seed seller",
		Role:     entity.RoleUser,
		Provider: entity.ProviderKakao,
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create seller: %w", err)
	}
	return u, nil
}
