package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trade-ham/marketplace-api/internal/domain/entity"
	"github.com/trade-ham/marketplace-api/pkg/apperror"
	"github.com/trade-ham/marketplace-api/pkg/mailer"
	mailtpl "github.com/trade-ham/marketplace-api/pkg/mailer/templates"
)

func newPurchaseService() (*PurchaseService, *memStore, *recordingJobs, *recordingIndex) {
	store := newMemStore()
	jobs := &recordingJobs{}
	index := &recordingIndex{}
	return NewPurchaseService(store, store, index, jobs, nil, nil), store, jobs, index
}

func TestPurchase_SequentialDoublePurchase(t *testing.T) {
	ctx := context.Background()
	svc, store, jobs, index := newPurchaseService()
	seller := store.addUser("seller")
	buyer := store.addUser("buyer")
	other := store.addUser("other")
	p := store.addProduct(seller.ID, "Product 1")

	res, err := svc.Purchase(ctx, p.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProductStatusSoldOut, res.Product.Status)
	assert.Equal(t, buyer.ID, res.Buyer.ID)

	got := store.product(p.ID)
	assert.Equal(t, entity.ProductStatusSoldOut, got.Status)
	require.NotNil(t, got.BuyerID)
	assert.Equal(t, buyer.ID, *got.BuyerID)

	_, err = svc.Purchase(ctx, p.ID, other.ID)
	assert.ErrorIs(t, err, apperror.ErrAccessDenied)

	// buyer unchanged after the rejected attempt
	got = store.product(p.ID)
	assert.Equal(t, buyer.ID, *got.BuyerID)

	notes := store.notificationsFor(seller.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, entity.NotificationPurchaseComplete, notes[0].Type)

	require.Len(t, jobs.jobs, 1)
	job := jobs.jobs[0].(mailer.EmailJob)
	assert.Equal(t, buyer.Email, job.To)
	assert.Equal(t, mailtpl.PurchaseComplete, job.Template)
	assert.Equal(t, []int64{p.ID}, index.indexed)
}

func TestPurchase_ConcurrentExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newPurchaseService()
	seller := store.addUser("seller")
	p := store.addProduct(seller.ID, "Product 1")

	const buyers = 8
	ids := make([]int64, buyers)
	for i := range ids {
		ids[i] = store.addUser("buyer").ID
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    []int64
		denials int
		start   = make(chan struct{})
	)
	for _, id := range ids {
		wg.Add(1)
		go func(buyerID int64) {
			defer wg.Done()
			<-start
			_, err := svc.Purchase(ctx, p.ID, buyerID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins = append(wins, buyerID)
			case errors.Is(err, apperror.ErrAccessDenied):
				denials++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	close(start)
	wg.Wait()

	require.Len(t, wins, 1)
	assert.Equal(t, buyers-1, denials)
	got := store.product(p.ID)
	assert.Equal(t, wins[0], *got.BuyerID)
	assert.Len(t, store.notificationsFor(seller.ID), 1)
}

func TestPurchase_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, store, jobs, _ := newPurchaseService()
	seller := store.addUser("seller")
	p := store.addProduct(seller.ID, "Product 1")

	_, err := svc.Purchase(ctx, p.ID, seller.ID)
	assert.ErrorIs(t, err, apperror.ErrAccessDenied, "seller cannot buy own product")

	_, err = svc.Purchase(ctx, 9999, seller.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Equal(t, entity.ProductStatusSell, store.product(p.ID).Status)
	assert.Empty(t, jobs.jobs)
}

func TestPurchase_SideEffectFailuresDoNotFail(t *testing.T) {
	ctx := context.Background()
	svc, store, jobs, index := newPurchaseService()
	jobs.err = errors.New("broker down")
	index.err = errors.New("es down")
	seller := store.addUser("seller")
	buyer := store.addUser("buyer")
	p := store.addProduct(seller.ID, "Product 1")

	_, err := svc.Purchase(ctx, p.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProductStatusSoldOut, store.product(p.ID).Status)
}

func TestCheckPurchasable(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newPurchaseService()
	seller := store.addUser("seller")
	buyer := store.addUser("buyer")
	p := store.addProduct(seller.ID, "Product 1")

	got, err := svc.CheckPurchasable(ctx, p.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.CheckPurchasable(ctx, p.ID, seller.ID)
	assert.ErrorIs(t, err, apperror.ErrAccessDenied)

	_, err = svc.Purchase(ctx, p.ID, buyer.ID)
	require.NoError(t, err)
	_, err = svc.CheckPurchasable(ctx, p.ID, buyer.ID)
	assert.ErrorIs(t, err, apperror.ErrAccessDenied)
}
