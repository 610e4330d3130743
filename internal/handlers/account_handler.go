package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"snowball/internal/models"
	"snowball/internal/services"
)

type AccountHandler struct {
	accountRepo services.AccountRepository
	calc        *services.PortfolioService
	syncService *services.SyncService
}

func NewAccountHandler(accountRepo services.AccountRepository, calc *services.PortfolioService, syncService *services.SyncService) *AccountHandler {
	return &AccountHandler{accountRepo: accountRepo, calc: calc, syncService: syncService}
}

type CreateAccountRequest struct {
	Name string  `json:"name" binding:"required"`
	Cash float64 `json:"cash"`
}

type UpdateAccountRequest struct {
	Name *string  `json:"name"`
	Cash *float64 `json:"cash"`
}

type SyncRequest struct {
	Accounts []services.LocalAccount `json:"accounts"`
}

// currentUserObjectID reads the user id the auth middleware stored.
func currentUserObjectID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		return primitive.NilObjectID, false
	}
	objID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return objID, true
}

// ListAccounts returns every account of the current user with its calculated
// portfolio view.
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	accounts, err := h.accountRepo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch accounts: " + err.Error()})
		return
	}

	responses := make([]AccountCalculatedResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, mapCalculation(h.calc.Calculate(&accounts[i])))
	}
	c.JSON(http.StatusOK, responses)
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.accountRepo.Save(c.Request.Context(), &models.Account{
		UserID: userID,
		Name:   req.Name,
		Cash:   req.Cash,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, saved)
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	account, ok := h.ownedAccount(c)
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Cash != nil {
		account.Cash = *req.Cash
	}

	saved, err := h.accountRepo.Save(c.Request.Context(), account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update account: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, saved)
}

// DeleteAccount removes an account and, with it, all of its assets.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	account, ok := h.ownedAccount(c)
	if !ok {
		return
	}

	if err := h.accountRepo.Delete(c.Request.Context(), account.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SyncPortfolio imports client-local accounts for users that have none yet.
func (h *AccountHandler) SyncPortfolio(c *gin.Context) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accounts, err := h.syncService.Sync(c.Request.Context(), userID, req.Accounts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "accounts": accounts})
}

// ownedAccount resolves the :id path param to an account owned by the
// current user, writing the error response itself on failure.
func (h *AccountHandler) ownedAccount(c *gin.Context) (*models.Account, bool) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}

	accountID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account id"})
		return nil, false
	}

	account, err := h.accountRepo.Get(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return nil, false
	}
	if account.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized"})
		return nil, false
	}
	return account, true
}
