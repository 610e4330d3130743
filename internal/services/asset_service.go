package services

import (
	"context"

	"github.com/rs/zerolog"

	"snowball/internal/models"
)

// AssetService covers the market-data-facing asset operations: the bulk price
// refresh and the ticker info lookup.
type AssetService struct {
	assetRepo   AssetRepository
	accountRepo AccountRepository
	marketData  MarketDataProvider
	log         zerolog.Logger
}

func NewAssetService(assetRepo AssetRepository, accountRepo AccountRepository, marketData MarketDataProvider, log zerolog.Logger) *AssetService {
	return &AssetService{
		assetRepo:   assetRepo,
		accountRepo: accountRepo,
		marketData:  marketData,
		log:         log,
	}
}

// UpdateAllPrices walks every asset that carries a ticker code and refreshes
// its market price. Best effort: one failed fetch must not abort the rest,
// and only the number of successful updates is reported.
func (s *AssetService) UpdateAllPrices(ctx context.Context) (int, error) {
	accounts, err := s.accountRepo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, account := range accounts {
		assets, err := s.assetRepo.ListByAccount(ctx, account.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("account", account.ID.Hex()).Msg("listing assets failed, skipping account")
			continue
		}
		for i := range assets {
			asset := assets[i]
			if asset.Code == "" {
				continue
			}
			price, err := s.marketData.FetchPrice(ctx, asset.Code)
			if err != nil {
				s.log.Warn().Err(err).Str("code", asset.Code).Msg("price fetch failed, skipping asset")
				continue
			}
			if price == nil {
				continue
			}
			asset.CurrentPrice = *price
			if _, err := s.assetRepo.Save(ctx, &asset); err != nil {
				s.log.Warn().Err(err).Str("code", asset.Code).Msg("saving refreshed price failed")
				continue
			}
			updated++
		}
	}

	s.log.Info().Int("updated", updated).Msg("price refresh finished")
	return updated, nil
}

// LookupAssetInfo resolves name and price for a ticker code, inferring the
// category when the provider does not supply one. A nil result means the code
// is unknown.
func (s *AssetService) LookupAssetInfo(ctx context.Context, code string) (*AssetInfo, error) {
	info, err := s.marketData.FetchAssetInfo(ctx, code)
	if err != nil || info == nil {
		return nil, err
	}
	if info.Category == "" {
		info.Category = models.InferCategory(info.Name, code)
	}
	return info, nil
}
