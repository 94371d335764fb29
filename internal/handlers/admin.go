// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/rifas-backend/internal/i18n"
	"github.com/javajoker/rifas-backend/internal/services"
	"github.com/javajoker/rifas-backend/internal/utils"
)

type AdminHandler struct {
	raffleService  *services.RaffleService
	storageService *services.StorageService
	auditService   *services.AuditService
}

func NewAdminHandler(raffleService *services.RaffleService, storageService *services.StorageService, auditService *services.AuditService) *AdminHandler {
	return &AdminHandler{
		raffleService:  raffleService,
		storageService: storageService,
		auditService:   auditService,
	}
}

// GET /admin/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.raffleService.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// POST /admin/raffles
func (h *AdminHandler) CreateRaffle(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateRaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	raffle, err := h.raffleService.CreateRaffle(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyRaffleCreated),
		"raffle":  raffle,
	})
}

// PUT /admin/raffles/:id
func (h *AdminHandler) UpdateRaffle(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.UpdateRaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	raffle, err := h.raffleService.UpdateRaffle(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyRaffleUpdated),
		"raffle":  raffle,
	})
}

// DELETE /admin/raffles/:id
func (h *AdminHandler) DeleteRaffle(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	if err := h.raffleService.DeleteRaffle(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyRaffleDeleted),
	})
}

// POST /admin/raffles/upload-image
func (h *AdminHandler) UploadRaffleImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadRaffleImage(c.Request.Context(), file, fileHeader)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFileUploadSuccess),
		"image":   result,
	})
}

// DELETE /admin/raffles/images/:name
func (h *AdminHandler) DeleteRaffleImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	if err := h.storageService.DeleteRaffleImage(c.Request.Context(), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFileDeleted),
	})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	filter := services.AuditFilter{
		UserID:       c.Query("user_id"),
		ResourceType: c.Query("resource_type"),
		Pagination:   utils.GetPaginationParams(c),
	}

	logs, total, err := h.auditService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, filter.Pagination))
}
