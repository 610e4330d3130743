package services

import (
	"sort"

	"snowball/internal/models"
)

// PortfolioService derives valuation and rebalancing figures for an account.
// Calculate is pure: no I/O, no mutation of its input, same result for the
// same account every time.
type PortfolioService struct{}

func NewPortfolioService() *PortfolioService {
	return &PortfolioService{}
}

// Calculate computes per-asset value, profit/loss, allocation drift and a
// recommended action, plus account-level aggregates. Degenerate input never
// errors: a non-positive total value zeroes the weights and a zero price
// forces HOLD, so valuation stays computable for display.
func (s *PortfolioService) Calculate(account *models.Account) *models.PortfolioCalculation {
	assets := account.Assets

	totalInvestedValue := 0.0
	totalPrincipal := 0.0
	for _, a := range assets {
		totalInvestedValue += a.CurrentPrice * a.Quantity
		totalPrincipal += a.AvgPrice * a.Quantity
	}
	totalAssetValue := totalInvestedValue + account.Cash

	totalPL := totalInvestedValue - totalPrincipal
	totalPLRate := 0.0
	if totalPrincipal > 0 {
		totalPLRate = totalPL / totalPrincipal * 100
	}

	calcs := make([]models.AssetCalculation, 0, len(assets))
	for _, a := range assets {
		currentValue := a.CurrentPrice * a.Quantity
		investedAmount := a.AvgPrice * a.Quantity
		pl := currentValue - investedAmount
		plRate := 0.0
		if investedAmount > 0 {
			plRate = pl / investedAmount * 100
		}

		currentWeight := 0.0
		if totalAssetValue > 0 {
			currentWeight = currentValue / totalAssetValue * 100
		}
		targetValue := totalAssetValue * (a.TargetWeight / 100.0)
		diffValue := targetValue - currentValue

		// Truncation toward zero, not rounding: a drift of 1.05 units buys 1,
		// a drift of -0.5 units holds.
		actionQuantity := 0
		if a.CurrentPrice > 0 {
			actionQuantity = int(diffValue / a.CurrentPrice)
		}

		action := models.ActionHold
		switch {
		case actionQuantity > 0:
			action = models.ActionBuy
		case actionQuantity < 0:
			action = models.ActionSell
		}

		calcs = append(calcs, models.AssetCalculation{
			Asset:          a,
			CurrentValue:   currentValue,
			InvestedAmount: investedAmount,
			PLAmount:       pl,
			PLRate:         plRate,
			CurrentWeight:  currentWeight,
			TargetValue:    targetValue,
			DiffValue:      diffValue,
			Action:         action,
			ActionQuantity: actionQuantity,
		})
	}

	sort.SliceStable(calcs, func(i, j int) bool {
		return assetSortKey(calcs[i].Asset) < assetSortKey(calcs[j].Asset)
	})

	return &models.PortfolioCalculation{
		Account:            *account,
		TotalAssetValue:    totalAssetValue,
		TotalInvestedValue: totalInvestedValue,
		TotalPLAmount:      totalPL,
		TotalPLRate:        totalPLRate,
		Assets:             calcs,
	}
}

// assetSortKey orders results by id, falling back to name for assets that
// have not been persisted yet. Independent of storage order.
func assetSortKey(a models.Asset) string {
	if !a.ID.IsZero() {
		return a.ID.Hex()
	}
	return a.Name
}
