// internal/handlers/seller.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/rifas-backend/internal/i18n"
	"github.com/javajoker/rifas-backend/internal/services"
	"github.com/javajoker/rifas-backend/internal/utils"
)

type SellerHandler struct {
	sellerService *services.SellerService
}

type RegisterSellerRequest struct {
	DisplayName  string `json:"display_name"`
	ContactEmail string `json:"contact_email"`
}

func NewSellerHandler(sellerService *services.SellerService) *SellerHandler {
	return &SellerHandler{
		sellerService: sellerService,
	}
}

// POST /sellers
func (h *SellerHandler) RegisterSeller(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req RegisterSellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.ContactEmail == "" {
		req.ContactEmail = utils.GetEmailFromContext(c)
	}

	seller, err := h.sellerService.RegisterSeller(c.Request.Context(), userID, req.DisplayName, req.ContactEmail)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySellerRegistered),
		"seller":  seller,
	})
}

// GET /sellers/me
func (h *SellerHandler) GetMySeller(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	seller, err := h.sellerService.GetSellerByOwner(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"seller": seller,
	})
}

// GET /sellers/:code
func (h *SellerHandler) ValidateCode(c *gin.Context) {
	seller, err := h.sellerService.ValidateCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	// Public view, no contact details
	utils.SuccessResponse(c, gin.H{
		"code":         seller.Code,
		"display_name": seller.DisplayName,
		"valid":        true,
	})
}

// GET /sellers/:code/stats
func (h *SellerHandler) GetSellerStats(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)

	seller, err := h.sellerService.ValidateCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	if seller.OwnerUserID != userID && !utils.IsAdminFromContext(c) {
		utils.ForbiddenResponse(c, "")
		return
	}

	stats, err := h.sellerService.SellerStats(c.Request.Context(), seller.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}
