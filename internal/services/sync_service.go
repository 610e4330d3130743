package services

import (
	"context"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"snowball/internal/models"
)

// LocalAsset mirrors the client's local-storage asset shape.
type LocalAsset struct {
	Name         string  `json:"name"`
	Code         string  `json:"code"`
	Category     string  `json:"category"`
	TargetWeight float64 `json:"targetWeight"`
	CurrentPrice float64 `json:"currentPrice"`
	AvgPrice     float64 `json:"avgPrice"`
	Quantity     float64 `json:"quantity"`
}

// LocalAccount mirrors the client's local-storage account shape.
type LocalAccount struct {
	Name   string       `json:"name"`
	Cash   float64      `json:"cash"`
	Assets []LocalAsset `json:"assets"`
}

// SyncService migrates client-local portfolio data to the server the first
// time an authenticated user syncs.
type SyncService struct {
	accountRepo AccountRepository
	assetRepo   AssetRepository
	log         zerolog.Logger
}

func NewSyncService(accountRepo AccountRepository, assetRepo AssetRepository, log zerolog.Logger) *SyncService {
	return &SyncService{accountRepo: accountRepo, assetRepo: assetRepo, log: log}
}

// Sync imports the local accounts when the user owns none on the server.
// When server-side accounts already exist, they win and the local payload is
// ignored.
func (s *SyncService) Sync(ctx context.Context, userID primitive.ObjectID, local []LocalAccount) ([]models.Account, error) {
	existing, err := s.accountRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 || len(local) == 0 {
		return existing, nil
	}

	for _, la := range local {
		name := la.Name
		if name == "" {
			name = "Imported portfolio"
		}
		saved, err := s.accountRepo.Save(ctx, &models.Account{
			UserID: userID,
			Name:   name,
			Cash:   la.Cash,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range la.Assets {
			category := item.Category
			if category == "" {
				category = models.CategoryStock
			}
			asset := &models.Asset{
				AccountID:    saved.ID,
				Name:         item.Name,
				Code:         item.Code,
				Category:     category,
				TargetWeight: item.TargetWeight,
				CurrentPrice: item.CurrentPrice,
				AvgPrice:     item.AvgPrice,
				Quantity:     item.Quantity,
			}
			if _, err := s.assetRepo.Save(ctx, asset); err != nil {
				return nil, err
			}
		}
	}

	s.log.Info().Str("user", userID.Hex()).Int("accounts", len(local)).Msg("local portfolio migrated")
	return s.accountRepo.ListByUser(ctx, userID)
}
