package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"snowball/internal/models"
)

type tradeFixture struct {
	assets   *fakeAssetRepo
	accounts *fakeAccountRepo
	service  *TradeService
	account  models.Account
	asset    models.Asset
}

func newTradeFixture(t *testing.T, cash float64, asset models.Asset) *tradeFixture {
	t.Helper()

	assets := newFakeAssetRepo()
	accounts := newFakeAccountRepo(assets)
	ctx := context.Background()

	account, err := accounts.Save(ctx, &models.Account{Name: "Test", Cash: cash})
	require.NoError(t, err)

	asset.AccountID = account.ID
	saved, err := assets.Save(ctx, &asset)
	require.NoError(t, err)

	return &tradeFixture{
		assets:   assets,
		accounts: accounts,
		service:  NewTradeService(assets, accounts, NewPortfolioService(), zerolog.Nop()),
		account:  *account,
		asset:    *saved,
	}
}

func (f *tradeFixture) currentAsset(t *testing.T) models.Asset {
	t.Helper()
	asset, err := f.assets.Get(context.Background(), f.asset.ID)
	require.NoError(t, err)
	require.NotNil(t, asset)
	return *asset
}

func (f *tradeFixture) currentAccount(t *testing.T) models.Account {
	t.Helper()
	account, err := f.accounts.Get(context.Background(), f.account.ID)
	require.NoError(t, err)
	require.NotNil(t, account)
	return *account
}

func TestExecuteTradeBuy(t *testing.T) {
	f := newTradeFixture(t, 20000, models.Asset{Name: "Stock", TargetWeight: 100, CurrentPrice: 10000})

	result, err := f.service.ExecuteTrade(context.Background(), f.asset.ID, 1, 10000)
	require.NoError(t, err)

	account := f.currentAccount(t)
	asset := f.currentAsset(t)
	assert.Equal(t, 10000.0, account.Cash)
	assert.Equal(t, 1.0, asset.Quantity)
	assert.Equal(t, 10000.0, asset.AvgPrice)
	assert.Equal(t, 20000.0, result.TotalAssetValue)
}

func TestExecuteTradeSellKeepsCostBasis(t *testing.T) {
	f := newTradeFixture(t, 0, models.Asset{Name: "Stock", CurrentPrice: 11000, AvgPrice: 10000, Quantity: 2})

	_, err := f.service.ExecuteTrade(context.Background(), f.asset.ID, -1, 12000)
	require.NoError(t, err)

	account := f.currentAccount(t)
	asset := f.currentAsset(t)
	assert.Equal(t, 12000.0, account.Cash)
	assert.Equal(t, 1.0, asset.Quantity)
	assert.Equal(t, 10000.0, asset.AvgPrice)
}

func TestExecuteTradeBuyAveragesCost(t *testing.T) {
	f := newTradeFixture(t, 40000, models.Asset{Name: "Stock", CurrentPrice: 20000, AvgPrice: 10000, Quantity: 1})

	_, err := f.service.ExecuteTrade(context.Background(), f.asset.ID, 1, 20000)
	require.NoError(t, err)

	asset := f.currentAsset(t)
	assert.Equal(t, 2.0, asset.Quantity)
	assert.Equal(t, 15000.0, asset.AvgPrice)
}

func TestExecuteTradeRoundTrip(t *testing.T) {
	f := newTradeFixture(t, 20000, models.Asset{Name: "Stock", CurrentPrice: 10000})
	ctx := context.Background()

	_, err := f.service.ExecuteTrade(ctx, f.asset.ID, 2, 10000)
	require.NoError(t, err)
	_, err = f.service.ExecuteTrade(ctx, f.asset.ID, -2, 10000)
	require.NoError(t, err)

	account := f.currentAccount(t)
	asset := f.currentAsset(t)
	assert.Equal(t, 20000.0, account.Cash)
	assert.Equal(t, 0.0, asset.Quantity)
	assert.Equal(t, 10000.0, asset.AvgPrice)
}

func TestExecuteTradeInsufficientFunds(t *testing.T) {
	f := newTradeFixture(t, 5000, models.Asset{Name: "Stock", CurrentPrice: 10000})

	_, err := f.service.ExecuteTrade(context.Background(), f.asset.ID, 1, 10000)

	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10000.0, insufficient.Required)
	assert.Equal(t, 5000.0, insufficient.Available)

	// Nothing may change on a rejected trade.
	account := f.currentAccount(t)
	asset := f.currentAsset(t)
	assert.Equal(t, 5000.0, account.Cash)
	assert.Equal(t, 0.0, asset.Quantity)
}

func TestExecuteTradeOversell(t *testing.T) {
	f := newTradeFixture(t, 1000, models.Asset{Name: "Stock", CurrentPrice: 10000, AvgPrice: 10000, Quantity: 1})

	_, err := f.service.ExecuteTrade(context.Background(), f.asset.ID, -2, 10000)

	var invalid *InvalidActionError
	require.ErrorAs(t, err, &invalid)

	account := f.currentAccount(t)
	asset := f.currentAsset(t)
	assert.Equal(t, 1000.0, account.Cash)
	assert.Equal(t, 1.0, asset.Quantity)
}

func TestExecuteTradeUnknownAsset(t *testing.T) {
	f := newTradeFixture(t, 1000, models.Asset{Name: "Stock", CurrentPrice: 100})

	_, err := f.service.ExecuteTrade(context.Background(), primitive.NewObjectID(), 1, 100)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestExecuteTradeMissingAccount(t *testing.T) {
	assets := newFakeAssetRepo()
	accounts := newFakeAccountRepo(assets)
	service := NewTradeService(assets, accounts, NewPortfolioService(), zerolog.Nop())

	orphan, err := assets.Save(context.Background(), &models.Asset{
		AccountID:    primitive.NewObjectID(),
		Name:         "Orphan",
		CurrentPrice: 100,
	})
	require.NoError(t, err)

	_, err = service.ExecuteTrade(context.Background(), orphan.ID, 1, 100)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestExecuteTradeLeavesMarketPriceAlone(t *testing.T) {
	f := newTradeFixture(t, 50000, models.Asset{Name: "Stock", CurrentPrice: 9500})

	_, err := f.service.ExecuteTrade(context.Background(), f.asset.ID, 1, 10000)
	require.NoError(t, err)

	asset := f.currentAsset(t)
	assert.Equal(t, 9500.0, asset.CurrentPrice)
}

func TestExecuteTradeConcurrentBuysCannotOverdraw(t *testing.T) {
	// Cash covers exactly one unit; five racing buys must produce exactly one
	// fill and never a negative balance.
	f := newTradeFixture(t, 10000, models.Asset{Name: "Stock", CurrentPrice: 10000})

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	rejections := 0

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.ExecuteTrade(context.Background(), f.asset.ID, 1, 10000)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			var insufficient *InsufficientFundsError
			if errors.As(err, &insufficient) {
				rejections++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 4, rejections)

	account := f.currentAccount(t)
	asset := f.currentAsset(t)
	assert.Equal(t, 0.0, account.Cash)
	assert.Equal(t, 1.0, asset.Quantity)
}
