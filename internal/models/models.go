package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rebalancing actions.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

type Account struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id,omitempty" json:"userId"`
	Name   string             `bson:"name" json:"name"`
	Cash   float64            `bson:"cash" json:"cash"` // signed; debit balances are valid
	Assets []Asset            `bson:"-" json:"assets"`
}

type Asset struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountID    primitive.ObjectID `bson:"account_id" json:"accountId"`
	Name         string             `bson:"name" json:"name"`
	Code         string             `bson:"code,omitempty" json:"code"`
	Category     string             `bson:"category" json:"category"`
	TargetWeight float64            `bson:"target_weight" json:"targetWeight"`
	CurrentPrice float64            `bson:"current_price" json:"currentPrice"`
	AvgPrice     float64            `bson:"avg_price" json:"avgPrice"`
	Quantity     float64            `bson:"quantity" json:"quantity"` // may be fractional
}

// AssetCalculation is the derived view of a single holding. Never persisted.
type AssetCalculation struct {
	Asset          Asset   `json:"asset"`
	CurrentValue   float64 `json:"currentValue"`
	InvestedAmount float64 `json:"investedAmount"`
	PLAmount       float64 `json:"plAmount"`
	PLRate         float64 `json:"plRate"`
	CurrentWeight  float64 `json:"currentWeight"`
	TargetValue    float64 `json:"targetValue"`
	DiffValue      float64 `json:"diffValue"`
	Action         string  `json:"action"`
	ActionQuantity int     `json:"actionQuantity"`
}

// PortfolioCalculation aggregates an account snapshot with its per-asset
// calculations, ordered by asset id.
type PortfolioCalculation struct {
	Account            Account            `json:"account"`
	TotalAssetValue    float64            `json:"totalAssetValue"`
	TotalInvestedValue float64            `json:"totalInvestedValue"`
	TotalPLAmount      float64            `json:"totalPlAmount"`
	TotalPLRate        float64            `json:"totalPlRate"`
	Assets             []AssetCalculation `json:"assets"`
}
