package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"snowball/internal/models"
)

// AccountRepository persists accounts. Get returns (nil, nil) when the id is
// unknown; Delete cascades to the account's assets.
type AccountRepository interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	ListAll(ctx context.Context) ([]models.Account, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Account, error)
	Save(ctx context.Context, account *models.Account) (*models.Account, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// AssetRepository persists assets. Get returns (nil, nil) when the id is
// unknown.
type AssetRepository interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Asset, error)
	Save(ctx context.Context, asset *models.Asset) (*models.Asset, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByAccount(ctx context.Context, accountID primitive.ObjectID) ([]models.Asset, error)
}

// UserRepository persists users. Lookups return (nil, nil) on a miss.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Save(ctx context.Context, user *models.User) (*models.User, error)
}

// AssetInfo is what a market data lookup returns for a ticker code.
type AssetInfo struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category,omitempty"`
}

// MarketDataProvider supplies price and name lookups. A nil result without an
// error means the code is unknown and the caller should skip it.
type MarketDataProvider interface {
	FetchPrice(ctx context.Context, code string) (*float64, error)
	FetchAssetInfo(ctx context.Context, code string) (*AssetInfo, error)
}
