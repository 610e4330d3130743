package services

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"snowball/internal/models"
)

// In-memory port implementations shared by the service tests. Mutex-guarded
// so the concurrency tests can hammer them from several goroutines.

type fakeAssetRepo struct {
	mu     sync.Mutex
	assets map[primitive.ObjectID]models.Asset
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{assets: make(map[primitive.ObjectID]models.Asset)}
}

func (r *fakeAssetRepo) Get(_ context.Context, id primitive.ObjectID) (*models.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[id]
	if !ok {
		return nil, nil
	}
	out := a
	return &out, nil
}

func (r *fakeAssetRepo) Save(_ context.Context, asset *models.Asset) (*models.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if asset.ID.IsZero() {
		asset.ID = primitive.NewObjectID()
	}
	r.assets[asset.ID] = *asset
	out := *asset
	return &out, nil
}

func (r *fakeAssetRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.assets, id)
	return nil
}

func (r *fakeAssetRepo) ListByAccount(_ context.Context, accountID primitive.ObjectID) ([]models.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Asset
	for _, a := range r.assets {
		if a.AccountID == accountID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[primitive.ObjectID]models.Account
	assets   *fakeAssetRepo
}

func newFakeAccountRepo(assets *fakeAssetRepo) *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[primitive.ObjectID]models.Account), assets: assets}
}

func (r *fakeAccountRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	r.mu.Lock()
	acc, ok := r.accounts[id]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	out := acc
	assets, _ := r.assets.ListByAccount(ctx, id)
	out.Assets = assets
	return &out, nil
}

func (r *fakeAccountRepo) ListAll(ctx context.Context) ([]models.Account, error) {
	r.mu.Lock()
	ids := make([]primitive.ObjectID, 0, len(r.accounts))
	for id := range r.accounts {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	var out []models.Account
	for _, id := range ids {
		acc, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *acc)
	}
	return out, nil
}

func (r *fakeAccountRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Account, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Account
	for _, acc := range all {
		if acc.UserID == userID {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) Save(_ context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	stored := *account
	stored.Assets = nil
	r.accounts[account.ID] = stored
	out := *account
	return &out, nil
}

func (r *fakeAccountRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	assets, _ := r.assets.ListByAccount(ctx, id)
	for _, a := range assets {
		if err := r.assets.Delete(ctx, a.ID); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]models.User)}
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	out := u
	return &out, nil
}

func (r *fakeUserRepo) Save(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = *user
	out := *user
	return &out, nil
}

type fakeMarketData struct {
	prices   map[string]float64
	infos    map[string]AssetInfo
	failing  map[string]bool
	requests []string
}

func newFakeMarketData() *fakeMarketData {
	return &fakeMarketData{
		prices:  make(map[string]float64),
		infos:   make(map[string]AssetInfo),
		failing: make(map[string]bool),
	}
}

func (m *fakeMarketData) FetchPrice(_ context.Context, code string) (*float64, error) {
	m.requests = append(m.requests, code)
	if m.failing[code] {
		return nil, fmt.Errorf("provider unavailable for %s", code)
	}
	price, ok := m.prices[code]
	if !ok {
		return nil, nil
	}
	return &price, nil
}

func (m *fakeMarketData) FetchAssetInfo(_ context.Context, code string) (*AssetInfo, error) {
	if m.failing[code] {
		return nil, fmt.Errorf("provider unavailable for %s", code)
	}
	info, ok := m.infos[code]
	if !ok {
		return nil, nil
	}
	out := info
	return &out, nil
}
