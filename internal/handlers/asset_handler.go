package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"snowball/internal/models"
	"snowball/internal/services"
)

type AssetHandler struct {
	assetRepo    services.AssetRepository
	accountRepo  services.AccountRepository
	tradeService *services.TradeService
	assetService *services.AssetService
	hub          *services.PortfolioHub
}

func NewAssetHandler(assetRepo services.AssetRepository, accountRepo services.AccountRepository, tradeService *services.TradeService, assetService *services.AssetService, hub *services.PortfolioHub) *AssetHandler {
	return &AssetHandler{
		assetRepo:    assetRepo,
		accountRepo:  accountRepo,
		tradeService: tradeService,
		assetService: assetService,
		hub:          hub,
	}
}

type CreateAssetRequest struct {
	AccountID    string  `json:"accountId" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Code         string  `json:"code"`
	Category     string  `json:"category"`
	TargetWeight float64 `json:"targetWeight"`
	CurrentPrice float64 `json:"currentPrice"`
	AvgPrice     float64 `json:"avgPrice"`
	Quantity     float64 `json:"quantity"`
}

type UpdateAssetRequest struct {
	Name         *string  `json:"name"`
	Code         *string  `json:"code"`
	Category     *string  `json:"category"`
	TargetWeight *float64 `json:"targetWeight"`
	CurrentPrice *float64 `json:"currentPrice"`
	AvgPrice     *float64 `json:"avgPrice"`
	Quantity     *float64 `json:"quantity"`
}

type ExecuteTradeRequest struct {
	AssetID        string  `json:"assetId" binding:"required"`
	ActionQuantity int     `json:"actionQuantity"`
	Price          float64 `json:"price" binding:"required,gt=0"`
}

func (h *AssetHandler) CreateAsset(c *gin.Context) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accountID, err := primitive.ObjectIDFromHex(req.AccountID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account id"})
		return
	}

	account, err := h.accountRepo.Get(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}
	if account.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized"})
		return
	}

	category := req.Category
	if category == "" {
		category = models.InferCategory(req.Name, req.Code)
	}

	saved, err := h.assetRepo.Save(c.Request.Context(), &models.Asset{
		AccountID:    accountID,
		Name:         req.Name,
		Code:         req.Code,
		Category:     category,
		TargetWeight: req.TargetWeight,
		CurrentPrice: req.CurrentPrice,
		AvgPrice:     req.AvgPrice,
		Quantity:     req.Quantity,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create asset: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, saved)
}

func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	asset, ok := h.ownedAsset(c)
	if !ok {
		return
	}

	var req UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		asset.Name = *req.Name
	}
	if req.Code != nil {
		asset.Code = *req.Code
	}
	if req.Category != nil {
		asset.Category = *req.Category
	}
	if req.TargetWeight != nil {
		asset.TargetWeight = *req.TargetWeight
	}
	if req.CurrentPrice != nil {
		asset.CurrentPrice = *req.CurrentPrice
	}
	if req.AvgPrice != nil {
		asset.AvgPrice = *req.AvgPrice
	}
	if req.Quantity != nil {
		asset.Quantity = *req.Quantity
	}

	saved, err := h.assetRepo.Save(c.Request.Context(), asset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update asset: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, saved)
}

func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	asset, ok := h.ownedAsset(c)
	if !ok {
		return
	}

	if err := h.assetRepo.Delete(c.Request.Context(), asset.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete asset: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ExecuteTrade applies a buy or sell and returns the recalculated portfolio.
// Not-found maps to 404, rejected validations to 400.
func (h *AssetHandler) ExecuteTrade(c *gin.Context) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req ExecuteTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	assetID, err := primitive.ObjectIDFromHex(req.AssetID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset id"})
		return
	}

	// Ownership check before touching anything.
	asset, err := h.assetRepo.Get(c.Request.Context(), assetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if asset != nil {
		account, err := h.accountRepo.Get(c.Request.Context(), asset.AccountID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if account != nil && account.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized"})
			return
		}
	}

	result, err := h.tradeService.ExecuteTrade(c.Request.Context(), assetID, req.ActionQuantity, req.Price)
	if err != nil {
		var insufficient *services.InsufficientFundsError
		var invalid *services.InvalidActionError
		switch {
		case errors.Is(err, services.ErrEntityNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.As(err, &insufficient), errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if h.hub != nil {
		h.hub.BroadcastPortfolio(result)
	}
	c.JSON(http.StatusOK, mapCalculation(result))
}

// UpdateAllPrices refreshes every asset price from the market data provider.
func (h *AssetHandler) UpdateAllPrices(c *gin.Context) {
	count, err := h.assetService.UpdateAllPrices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Price refresh failed: " + err.Error()})
		return
	}

	if h.hub != nil {
		h.hub.BroadcastPriceRefresh(count)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "updatedCount": count})
}

// LookupAsset resolves name, price and category for a ticker code.
func (h *AssetHandler) LookupAsset(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code query parameter required"})
		return
	}

	info, err := h.assetService.LookupAssetInfo(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if info == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Asset info not found"})
		return
	}

	c.JSON(http.StatusOK, info)
}

// ownedAsset resolves the :id path param to an asset whose owning account
// belongs to the current user.
func (h *AssetHandler) ownedAsset(c *gin.Context) (*models.Asset, bool) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}

	assetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset id"})
		return nil, false
	}

	asset, err := h.assetRepo.Get(c.Request.Context(), assetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if asset == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
		return nil, false
	}

	account, err := h.accountRepo.Get(c.Request.Context(), asset.AccountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if account != nil && account.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized"})
		return nil, false
	}
	return asset, true
}
