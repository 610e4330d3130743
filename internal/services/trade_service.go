package services

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"snowball/internal/models"
)

// tradeEffect is the proposed outcome of a trade, computed before either
// entity is touched so a rejected trade leaves both exactly as they were.
type tradeEffect struct {
	newCash     float64
	newQuantity float64
	newAvgPrice float64
}

// TradeService applies a signed trade to one asset and its owning account,
// then recomputes the portfolio so callers always see a consistent snapshot.
type TradeService struct {
	assetRepo   AssetRepository
	accountRepo AccountRepository
	calc        *PortfolioService
	log         zerolog.Logger

	mu    sync.Mutex
	locks map[primitive.ObjectID]*sync.Mutex
}

func NewTradeService(assetRepo AssetRepository, accountRepo AccountRepository, calc *PortfolioService, log zerolog.Logger) *TradeService {
	return &TradeService{
		assetRepo:   assetRepo,
		accountRepo: accountRepo,
		calc:        calc,
		log:         log,
		locks:       make(map[primitive.ObjectID]*sync.Mutex),
	}
}

// accountLock serializes trades per account. Without it two concurrent buys
// against the same cash balance could both pass the funds check and overdraw.
func (s *TradeService) accountLock(id primitive.ObjectID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// ExecuteTrade buys (actionQuantity > 0) or sells (actionQuantity < 0)
// at the given execution price. Validation order is fixed: existence, then
// funds or quantity, then mutation and persistence of both entities.
func (s *TradeService) ExecuteTrade(ctx context.Context, assetID primitive.ObjectID, actionQuantity int, price float64) (*models.PortfolioCalculation, error) {
	probe, err := s.assetRepo.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if probe == nil {
		return nil, fmt.Errorf("asset %s: %w", assetID.Hex(), ErrEntityNotFound)
	}

	lock := s.accountLock(probe.AccountID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the account lock so validation runs against state no
	// concurrent trade can still change.
	asset, err := s.assetRepo.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("asset %s: %w", assetID.Hex(), ErrEntityNotFound)
	}
	account, err := s.accountRepo.Get(ctx, asset.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %s: %w", asset.AccountID.Hex(), ErrEntityNotFound)
	}

	effect, err := proposeTrade(account, asset, actionQuantity, price)
	if err != nil {
		return nil, err
	}

	account.Cash = effect.newCash
	asset.Quantity = effect.newQuantity
	asset.AvgPrice = effect.newAvgPrice
	// current_price stays as the market last saw it; the execution price is
	// not assumed to be a fresh quote.

	if _, err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}
	if _, err := s.assetRepo.Save(ctx, asset); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("asset", assetID.Hex()).
		Int("quantity", actionQuantity).
		Float64("price", price).
		Float64("cash", account.Cash).
		Msg("trade executed")

	fresh, err := s.accountRepo.Get(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, fmt.Errorf("account %s: %w", account.ID.Hex(), ErrEntityNotFound)
	}
	return s.calc.Calculate(fresh), nil
}

// proposeTrade validates a signed trade and computes its effect without
// mutating either entity.
func proposeTrade(account *models.Account, asset *models.Asset, actionQuantity int, price float64) (tradeEffect, error) {
	totalAmount := math.Abs(float64(actionQuantity)) * price
	newQuantity := asset.Quantity + float64(actionQuantity)

	effect := tradeEffect{
		newCash:     account.Cash,
		newQuantity: newQuantity,
		newAvgPrice: asset.AvgPrice,
	}

	if actionQuantity > 0 {
		if account.Cash < totalAmount {
			return tradeEffect{}, &InsufficientFundsError{Required: totalAmount, Available: account.Cash}
		}
		effect.newCash -= totalAmount
		if newQuantity > 0 {
			effect.newAvgPrice = (asset.Quantity*asset.AvgPrice + float64(actionQuantity)*price) / newQuantity
		}
	} else {
		if newQuantity < 0 {
			return tradeEffect{}, &InvalidActionError{Reason: "cannot sell more than you hold"}
		}
		// Sells never recompute the cost basis; realized gains are not
		// tracked separately.
		effect.newCash += totalAmount
	}
	return effect, nil
}
