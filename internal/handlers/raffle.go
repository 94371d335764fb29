// internal/handlers/raffle.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/rifas-backend/internal/i18n"
	"github.com/javajoker/rifas-backend/internal/models"
	"github.com/javajoker/rifas-backend/internal/services"
	"github.com/javajoker/rifas-backend/internal/utils"
)

type RaffleHandler struct {
	raffleService *services.RaffleService
	ledger        *services.TicketLedger
}

type ReservationRequest struct {
	Numbers    []int   `json:"numbers"`
	SellerCode *string `json:"seller_code"`
}

func NewRaffleHandler(raffleService *services.RaffleService, ledger *services.TicketLedger) *RaffleHandler {
	return &RaffleHandler{
		raffleService: raffleService,
		ledger:        ledger,
	}
}

// GET /raffles
func (h *RaffleHandler) GetRaffles(c *gin.Context) {
	filter := services.RaffleFilter{Pagination: utils.GetPaginationParams(c)}

	if status := models.RaffleStatus(c.Query("status")); status != "" {
		if !status.Valid() {
			utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "status"), nil)
			return
		}
		filter.Status = &status
	}

	raffles, total, err := h.raffleService.ListRaffles(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(raffles, total, filter.Pagination))
}

// GET /raffles/:id
func (h *RaffleHandler) GetRaffle(c *gin.Context) {
	raffle, err := h.raffleService.GetRaffle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"raffle": raffle,
	})
}

// GET /raffles/:id/numbers
func (h *RaffleHandler) GetAvailableNumbers(c *gin.Context) {
	numbers, err := h.raffleService.AvailableNumbers(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"available_numbers": numbers,
		"count":             len(numbers),
	})
}

// POST /raffles/:id/reservations
func (h *RaffleHandler) ReserveNumbers(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	// Tickets belong to the authenticated buyer
	buyer := utils.GetEmailFromContext(c)
	if buyer == "" {
		buyer, _ = utils.GetUserIDFromContext(c)
	}

	tickets, err := h.raffleService.ReserveNumbers(c.Request.Context(), services.ReservationRequest{
		RaffleID:      c.Param("id"),
		Numbers:       req.Numbers,
		BuyerIdentity: buyer,
		SellerCode:    req.SellerCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyRafflePurchaseSuccess, len(tickets)),
		"tickets": tickets,
	})
}

// GET /tickets/me
func (h *RaffleHandler) GetMyTickets(c *gin.Context) {
	buyer := utils.GetEmailFromContext(c)
	if buyer == "" {
		buyer, _ = utils.GetUserIDFromContext(c)
	}

	tickets, err := h.ledger.ByBuyer(c.Request.Context(), buyer)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"tickets": tickets,
	})
}
