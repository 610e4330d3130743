package handlers

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"snowball/internal/models"
)

// AssetCalculatedResponse flattens an asset's stored fields and its derived
// calculation into one object, matching what the frontend renders per row.
type AssetCalculatedResponse struct {
	ID           primitive.ObjectID `json:"id"`
	AccountID    primitive.ObjectID `json:"accountId"`
	Name         string             `json:"name"`
	Code         string             `json:"code"`
	Category     string             `json:"category"`
	TargetWeight float64            `json:"targetWeight"`
	CurrentPrice float64            `json:"currentPrice"`
	AvgPrice     float64            `json:"avgPrice"`
	Quantity     float64            `json:"quantity"`

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

// AccountCalculatedResponse is the calculated view of one account.
type AccountCalculatedResponse struct {
	ID                 primitive.ObjectID        `json:"id"`
	Name               string                    `json:"name"`
	Cash               float64                   `json:"cash"`
	Assets             []AssetCalculatedResponse `json:"assets"`
	TotalAssetValue    float64                   `json:"totalAssetValue"`
	TotalInvestedValue float64                   `json:"totalInvestedValue"`
	TotalPLAmount      float64                   `json:"totalPlAmount"`
	TotalPLRate        float64                   `json:"totalPlRate"`
}

func mapCalculation(result *models.PortfolioCalculation) AccountCalculatedResponse {
	assets := make([]AssetCalculatedResponse, 0, len(result.Assets))
	for _, item := range result.Assets {
		a := item.Asset
		assets = append(assets, AssetCalculatedResponse{
			ID:           a.ID,
			AccountID:    a.AccountID,
			Name:         a.Name,
			Code:         a.Code,
			Category:     a.Category,
			TargetWeight: a.TargetWeight,
			CurrentPrice: a.CurrentPrice,
			AvgPrice:     a.AvgPrice,
			Quantity:     a.Quantity,

			CurrentValue:   item.CurrentValue,
			InvestedAmount: item.InvestedAmount,
			PLAmount:       item.PLAmount,
			PLRate:         item.PLRate,
			CurrentWeight:  item.CurrentWeight,
			TargetValue:    item.TargetValue,
			DiffValue:      item.DiffValue,
			Action:         item.Action,
			ActionQuantity: item.ActionQuantity,
		})
	}

	return AccountCalculatedResponse{
		ID:                 result.Account.ID,
		Name:               result.Account.Name,
		Cash:               result.Account.Cash,
		Assets:             assets,
		TotalAssetValue:    result.TotalAssetValue,
		TotalInvestedValue: result.TotalInvestedValue,
		TotalPLAmount:      result.TotalPLAmount,
		TotalPLRate:        result.TotalPLRate,
	}
}
