package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lendingapp "github.com/lending/backend/internal/application/lending"
	"github.com/lending/backend/internal/domain/lending"
	"github.com/lending/backend/internal/domain/shared/valueobject"
)

// LoanHandler handles loan servicing API endpoints
type LoanHandler struct {
	BaseHandler
	service *lendingapp.ProcessingService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(service *lendingapp.ProcessingService) *LoanHandler {
	return &LoanHandler{service: service}
}

// RegisterPaymentRequest represents a request to register an incoming payment
// @Description Request body for parking a payment on the loan's contract service account
type RegisterPaymentRequest struct {
	Amount   string `json:"amount" binding:"required" example:"1500.00"`
	Currency string `json:"currency" binding:"required,len=3" example:"BYR"`
}

// List godoc
// @ID           listLoans
// @Summary      List loans
// @Tags         loans
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        is_closed query bool false "Filter by closed state"
// @Success      200 {object} APIResponse[[]lending.Loan]
// @Failure      400 {object} ErrorResponse
// @Router       /lending/loans [get]
func (h *LoanHandler) List(c *gin.Context) {
	filter, err := bindListFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if isClosed := c.Query("is_closed"); isClosed != "" {
		filter.Filters["is_closed"] = isClosed == "true"
	}

	loans, err := h.service.GetLoans(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, loans)
}

// GetByID godoc
// @ID           getLoan
// @Summary      Get a loan by ID
// @Description  Returns the loan aggregate including its schedule and accounts
// @Tags         loans
// @Produce      json
// @Param        id path string true "Loan ID"
// @Success      200 {object} APIResponse[lending.Loan]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /lending/loans/{id} [get]
func (h *LoanHandler) GetByID(c *gin.Context) {
	loan, ok := h.loadLoan(c)
	if !ok {
		return
	}
	h.Success(c, loan)
}

// GetSchedule godoc
// @ID           getLoanSchedule
// @Summary      Get a loan's payment schedule
// @Tags         loans
// @Produce      json
// @Param        id path string true "Loan ID"
// @Success      200 {object} APIResponse[lending.PaymentSchedule]
// @Failure      404 {object} ErrorResponse
// @Router       /lending/loans/{id}/schedule [get]
func (h *LoanHandler) GetSchedule(c *gin.Context) {
	loan, ok := h.loadLoan(c)
	if !ok {
		return
	}
	if loan.Schedule == nil {
		h.NotFound(c, "Loan has no schedule")
		return
	}
	h.Success(c, loan.Schedule)
}

// RegisterPayment godoc
// @ID           registerLoanPayment
// @Summary      Register an incoming payment
// @Description  Parks the paid amount on the loan's contract service account; it is applied to debt during end-of-day processing
// @Tags         loans
// @Accept       json
// @Produce      json
// @Param        id path string true "Loan ID"
// @Param        request body RegisterPaymentRequest true "Payment request"
// @Success      201 {object} APIResponse[lending.Entry]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /lending/loans/{id}/payments [post]
func (h *LoanHandler) RegisterPayment(c *gin.Context) {
	loan, ok := h.loadLoan(c)
	if !ok {
		return
	}

	var req RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	amount, err := valueobject.NewMoneyFromString(req.Amount, valueobject.Currency(req.Currency))
	if err != nil {
		h.BadRequest(c, "Invalid amount format")
		return
	}

	entry, err := h.service.RegisterPayment(c.Request.Context(), loan, amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entry)
}

// Close godoc
// @ID           closeLoan
// @Summary      Close a fully repaid loan
// @Description  Closes the loan and its accounts when no outstanding debt remains; returns whether the loan was closed
// @Tags         loans
// @Produce      json
// @Param        id path string true "Loan ID"
// @Success      200 {object} APIResponse[CloseLoanResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /lending/loans/{id}/close [post]
func (h *LoanHandler) Close(c *gin.Context) {
	loan, ok := h.loadLoan(c)
	if !ok {
		return
	}

	closed, err := h.service.CloseLoanContract(c.Request.Context(), loan)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CloseLoanResponse{Closed: closed})
}

// CloseLoanResponse reports the outcome of a close attempt
type CloseLoanResponse struct {
	Closed bool `json:"closed"`
}

func (h *LoanHandler) loadLoan(c *gin.Context) (*lending.Loan, bool) {
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid loan ID format")
		return nil, false
	}

	loan, err := h.service.GetLoan(c.Request.Context(), loanID)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	if loan == nil {
		h.NotFound(c, "Loan not found")
		return nil, false
	}
	return loan, true
}
