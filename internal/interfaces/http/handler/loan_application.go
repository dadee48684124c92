package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lendingapp "github.com/lending/backend/internal/application/lending"
	"github.com/lending/backend/internal/domain/lending"
	"github.com/shopspring/decimal"
)

// LoanApplicationHandler handles loan application API endpoints
type LoanApplicationHandler struct {
	BaseHandler
	service *lendingapp.ProcessingService
}

// NewLoanApplicationHandler creates a new LoanApplicationHandler
func NewLoanApplicationHandler(service *lendingapp.ProcessingService) *LoanApplicationHandler {
	return &LoanApplicationHandler{service: service}
}

// CreateLoanApplicationRequest represents a request to file a loan application
// @Description Request body for filing a new loan application
type CreateLoanApplicationRequest struct {
	CustomerID string `json:"customer_id" binding:"required,uuid" example:"7f8c2f0a-1111-4f6d-9c55-000000000001"`
	TariffID   string `json:"tariff_id" binding:"required,uuid" example:"7f8c2f0a-2222-4f6d-9c55-000000000002"`
	Amount     string `json:"amount" binding:"required" example:"120000"`
	Term       int    `json:"term" binding:"required,min=1" example:"12"`
	CellPhone  string `json:"cell_phone" binding:"max=50" example:"+375291234567"`
}

// Create godoc
// @ID           createLoanApplication
// @Summary      File a loan application
// @Description  Files a new application against a tariff, validating amount and term bounds
// @Tags         loan-applications
// @Accept       json
// @Produce      json
// @Param        request body CreateLoanApplicationRequest true "Application request"
// @Success      201 {object} APIResponse[lending.LoanApplication]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /lending/applications [post]
func (h *LoanApplicationHandler) Create(c *gin.Context) {
	var req CreateLoanApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}
	tariffID, err := uuid.Parse(req.TariffID)
	if err != nil {
		h.BadRequest(c, "Invalid tariff ID format")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.BadRequest(c, "Invalid amount format")
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

	app, err := lending.NewLoanApplication(customerID, tariff, amount, req.Term, req.CellPhone)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.service.CreateLoanApplication(c.Request.Context(), app); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, app)
}

// List godoc
// @ID           listLoanApplications
// @Summary      List loan applications
// @Tags         loan-applications
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        status query string false "Filter by status"
// @Success      200 {object} APIResponse[[]lending.LoanApplication]
// @Failure      400 {object} ErrorResponse
// @Router       /lending/applications [get]
func (h *LoanApplicationHandler) List(c *gin.Context) {
	filter, err := bindListFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		filter.Filters["customer_id"] = customerID
	}

	apps, err := h.service.GetLoanApplications(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, apps)
}

// GetByID godoc
// @ID           getLoanApplication
// @Summary      Get a loan application by ID
// @Tags         loan-applications
// @Produce      json
// @Param        id path string true "Application ID"
// @Success      200 {object} APIResponse[lending.LoanApplication]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /lending/applications/{id} [get]
func (h *LoanApplicationHandler) GetByID(c *gin.Context) {
	app, ok := h.loadApplication(c)
	if !ok {
		return
	}
	h.Success(c, app)
}

// Approve godoc
// @ID           approveLoanApplication
// @Summary      Approve a loan application
// @Description  Moves a new application to the approved status
// @Tags         loan-applications
// @Produce      json
// @Param        id path string true "Application ID"
// @Success      200 {object} APIResponse[lending.LoanApplication]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /lending/applications/{id}/approve [post]
func (h *LoanApplicationHandler) Approve(c *gin.Context) {
	app, ok := h.loadApplication(c)
	if !ok {
		return
	}

	if err := h.service.ApproveLoanApplication(c.Request.Context(), app); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, app)
}

// Reject godoc
// @ID           rejectLoanApplication
// @Summary      Reject a loan application
// @Description  Moves a new application to the rejected status
// @Tags         loan-applications
// @Produce      json
// @Param        id path string true "Application ID"
// @Success      200 {object} APIResponse[lending.LoanApplication]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /lending/applications/{id}/reject [post]
func (h *LoanApplicationHandler) Reject(c *gin.Context) {
	app, ok := h.loadApplication(c)
	if !ok {
		return
	}

	if err := h.service.RejectLoanApplication(c.Request.Context(), app); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, app)
}

// Contract godoc
// @ID           contractLoanApplication
// @Summary      Contract an approved application into a loan
// @Description  Calculates the payment schedule, opens the ledger accounts and disburses the principal
// @Tags         loan-applications
// @Produce      json
// @Param        id path string true "Application ID"
// @Success      201 {object} APIResponse[lending.Loan]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /lending/applications/{id}/contract [post]
func (h *LoanApplicationHandler) Contract(c *gin.Context) {
	app, ok := h.loadApplication(c)
	if !ok {
		return
	}

	loan, err := h.service.CreateLoanContract(c.Request.Context(), app.CustomerID, app)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, loan)
}

// Delete godoc
// @ID           deleteLoanApplication
// @Summary      Delete a loan application
// @Tags         loan-applications
// @Produce      json
// @Param        id path string true "Application ID"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /lending/applications/{id} [delete]
func (h *LoanApplicationHandler) Delete(c *gin.Context) {
	appID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid application ID format")
		return
	}

	if err := h.service.DeleteLoanApplication(c.Request.Context(), appID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// loadApplication parses the path ID and loads the application, writing the
// error response itself when either step fails.
func (h *LoanApplicationHandler) loadApplication(c *gin.Context) (*lending.LoanApplication, bool) {
	appID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid application ID format")
		return nil, false
	}

	app, err := h.service.GetLoanApplication(c.Request.Context(), appID)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	if app == nil {
		h.NotFound(c, "Loan application not found")
		return nil, false
	}
	return app, true
}
