package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"snowball/internal/models"
	"snowball/internal/services"
)

// Minimal in-memory ports for the HTTP-level tests. Handlers run single
// threaded here, so no locking is needed.

type memAssetRepo struct {
	assets map[primitive.ObjectID]models.Asset
}

func (r *memAssetRepo) Get(_ context.Context, id primitive.ObjectID) (*models.Asset, error) {
	a, ok := r.assets[id]
	if !ok {
		return nil, nil
	}
	out := a
	return &out, nil
}

func (r *memAssetRepo) Save(_ context.Context, asset *models.Asset) (*models.Asset, error) {
	if asset.ID.IsZero() {
		asset.ID = primitive.NewObjectID()
	}
	r.assets[asset.ID] = *asset
	out := *asset
	return &out, nil
}

func (r *memAssetRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(r.assets, id)
	return nil
}

func (r *memAssetRepo) ListByAccount(_ context.Context, accountID primitive.ObjectID) ([]models.Asset, error) {
	var out []models.Asset
	for _, a := range r.assets {
		if a.AccountID == accountID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memAccountRepo struct {
	accounts map[primitive.ObjectID]models.Account
	assets   *memAssetRepo
}

func (r *memAccountRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	acc, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	out := acc
	out.Assets, _ = r.assets.ListByAccount(ctx, id)
	return &out, nil
}

func (r *memAccountRepo) ListAll(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	for id := range r.accounts {
		acc, _ := r.Get(ctx, id)
		out = append(out, *acc)
	}
	return out, nil
}

func (r *memAccountRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Account, error) {
	all, _ := r.ListAll(ctx)
	var out []models.Account
	for _, acc := range all {
		if acc.UserID == userID {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (r *memAccountRepo) Save(_ context.Context, account *models.Account) (*models.Account, error) {
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	stored := *account
	stored.Assets = nil
	r.accounts[account.ID] = stored
	out := *account
	return &out, nil
}

func (r *memAccountRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	assets, _ := r.assets.ListByAccount(ctx, id)
	for _, a := range assets {
		_ = r.assets.Delete(ctx, a.ID)
	}
	delete(r.accounts, id)
	return nil
}

type tradeAPIFixture struct {
	router  *gin.Engine
	userID  primitive.ObjectID
	account models.Account
	asset   models.Asset
}

func newTradeAPIFixture(t *testing.T, cash float64, asset models.Asset) *tradeAPIFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	assets := &memAssetRepo{assets: make(map[primitive.ObjectID]models.Asset)}
	accounts := &memAccountRepo{accounts: make(map[primitive.ObjectID]models.Account), assets: assets}
	ctx := context.Background()

	userID := primitive.NewObjectID()
	account, err := accounts.Save(ctx, &models.Account{UserID: userID, Name: "Main", Cash: cash})
	require.NoError(t, err)
	asset.AccountID = account.ID
	saved, err := assets.Save(ctx, &asset)
	require.NoError(t, err)

	calc := services.NewPortfolioService()
	tradeService := services.NewTradeService(assets, accounts, calc, zerolog.Nop())
	handler := NewAssetHandler(assets, accounts, tradeService, nil, nil)

	router := gin.New()
	router.POST("/assets/execute", func(c *gin.Context) {
		c.Set("userID", userID.Hex())
	}, handler.ExecuteTrade)

	return &tradeAPIFixture{router: router, userID: userID, account: *account, asset: *saved}
}

func (f *tradeAPIFixture) execute(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/assets/execute", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestExecuteTradeEndpointSuccess(t *testing.T) {
	f := newTradeAPIFixture(t, 20000, models.Asset{Name: "Stock", TargetWeight: 100, CurrentPrice: 10000})

	rec := f.execute(t, fmt.Sprintf(`{"assetId": %q, "actionQuantity": 1, "price": 10000}`, f.asset.ID.Hex()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AccountCalculatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 10000.0, resp.Cash)
	require.Len(t, resp.Assets, 1)
	assert.Equal(t, 1.0, resp.Assets[0].Quantity)
}

func TestExecuteTradeEndpointInsufficientFunds(t *testing.T) {
	f := newTradeAPIFixture(t, 500, models.Asset{Name: "Stock", CurrentPrice: 10000})

	rec := f.execute(t, fmt.Sprintf(`{"assetId": %q, "actionQuantity": 1, "price": 10000}`, f.asset.ID.Hex()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not enough cash")
}

func TestExecuteTradeEndpointOversell(t *testing.T) {
	f := newTradeAPIFixture(t, 0, models.Asset{Name: "Stock", CurrentPrice: 10000, Quantity: 1})

	rec := f.execute(t, fmt.Sprintf(`{"assetId": %q, "actionQuantity": -2, "price": 10000}`, f.asset.ID.Hex()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteTradeEndpointUnknownAsset(t *testing.T) {
	f := newTradeAPIFixture(t, 1000, models.Asset{Name: "Stock", CurrentPrice: 100})

	rec := f.execute(t, fmt.Sprintf(`{"assetId": %q, "actionQuantity": 1, "price": 100}`, primitive.NewObjectID().Hex()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecuteTradeEndpointValidation(t *testing.T) {
	f := newTradeAPIFixture(t, 1000, models.Asset{Name: "Stock", CurrentPrice: 100})

	rec := f.execute(t, `{"actionQuantity": 1, "price": 100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.execute(t, fmt.Sprintf(`{"assetId": %q, "actionQuantity": 1, "price": 0}`, f.asset.ID.Hex()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.execute(t, `{"assetId": "not-hex", "actionQuantity": 1, "price": 100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
