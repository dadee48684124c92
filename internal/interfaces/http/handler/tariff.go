package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lendingapp "github.com/lending/backend/internal/application/lending"
	"github.com/lending/backend/internal/domain/lending"
	"github.com/lending/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// TariffHandler handles tariff-related API endpoints
type TariffHandler struct {
	BaseHandler
	service *lendingapp.ProcessingService
}

// NewTariffHandler creates a new TariffHandler
func NewTariffHandler(service *lendingapp.ProcessingService) *TariffHandler {
	return &TariffHandler{service: service}
}

// CreateTariffRequest represents a request to create a new tariff
// @Description Request body for creating a new loan tariff
type CreateTariffRequest struct {
	Name             string  `json:"name" binding:"required,min=1,max=200" example:"Standard consumer"`
	InterestRate     string  `json:"interest_rate" binding:"required" example:"0.12"`
	MinAmount        string  `json:"min_amount" binding:"required" example:"1000"`
	MaxAmount        string  `json:"max_amount" binding:"required" example:"500000"`
	MinTerm          int     `json:"min_term" binding:"required,min=1" example:"3"`
	MaxTerm          int     `json:"max_term" binding:"required,min=1" example:"60"`
	PaymentFrequency int     `json:"payment_frequency" binding:"required,min=1" example:"1"`
	CalculationKind  string  `json:"calculation_kind" binding:"required,oneof=ANNUITY STANDARD" example:"ANNUITY"`
	Currency         string  `json:"currency" binding:"required,len=3" example:"BYR"`
	MinAge           int     `json:"min_age" binding:"omitempty,min=0" example:"18"`
	MaxAge           *int    `json:"max_age" binding:"omitempty,min=0" example:"70"`
	InitialFee       *string `json:"initial_fee" example:"0"`
	GuarantorNeeded  bool    `json:"guarantor_needed" example:"false"`
}

// Create godoc
// @ID           createTariff
// @Summary      Create a new tariff
// @Description  Create a new loan tariff defining rate, amount and term bounds
// @Tags         tariffs
// @Accept       json
// @Produce      json
// @Param        request body CreateTariffRequest true "Tariff creation request"
// @Success      201 {object} APIResponse[lending.Tariff]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /lending/tariffs [post]
func (h *TariffHandler) Create(c *gin.Context) {
	var req CreateTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rate, err := decimal.NewFromString(req.InterestRate)
	if err != nil {
		h.BadRequest(c, "Invalid interest rate format")
		return
	}
	minAmount, err := decimal.NewFromString(req.MinAmount)
	if err != nil {
		h.BadRequest(c, "Invalid minimum amount format")
		return
	}
	maxAmount, err := decimal.NewFromString(req.MaxAmount)
	if err != nil {
		h.BadRequest(c, "Invalid maximum amount format")
		return
	}

	tariff, err := lending.NewTariff(
		req.Name,
		rate,
		minAmount, maxAmount,
		req.MinTerm, req.MaxTerm,
		req.PaymentFrequency,
		lending.PaymentCalculationKind(req.CalculationKind),
		valueobject.Currency(req.Currency),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	tariff.MinAge = req.MinAge
	tariff.MaxAge = req.MaxAge
	tariff.GuarantorNeeded = req.GuarantorNeeded
	if req.InitialFee != nil {
		fee, err := decimal.NewFromString(*req.InitialFee)
		if err != nil {
			h.BadRequest(c, "Invalid initial fee format")
			return
		}
		tariff.InitialFee = fee
	}

	if err := h.service.UpsertTariff(c.Request.Context(), tariff); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, tariff)
}

// List godoc
// @ID           listTariffs
// @Summary      List tariffs
// @Description  List tariffs with pagination and ordering
// @Tags         tariffs
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]lending.Tariff]
// @Failure      400 {object} ErrorResponse
// @Router       /lending/tariffs [get]
func (h *TariffHandler) List(c *gin.Context) {
	filter, err := bindListFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tariffs, err := h.service.GetTariffs(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tariffs)
}

// GetByID godoc
// @ID           getTariff
// @Summary      Get a tariff by ID
// @Tags         tariffs
// @Produce      json
// @Param        id path string true "Tariff ID"
// @Success      200 {object} APIResponse[lending.Tariff]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /lending/tariffs/{id} [get]
func (h *TariffHandler) GetByID(c *gin.Context) {
	tariffID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tariff ID format")
		return
	}

	tariff, err := h.service.GetTariff(c.Request.Context(), tariffID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if tariff == nil {
		h.NotFound(c, "Tariff not found")
		return
	}

	h.Success(c, tariff)
}

// Delete godoc
// @ID           deleteTariff
// @Summary      Delete a tariff
// @Description  Deactivates the tariff as of the bank date and removes it
// @Tags         tariffs
// @Produce      json
// @Param        id path string true "Tariff ID"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /lending/tariffs/{id} [delete]
func (h *TariffHandler) Delete(c *gin.Context) {
	tariffID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tariff ID format")
		return
	}

	if err := h.service.DeleteTariff(c.Request.Context(), tariffID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
