package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	lendingapp "github.com/lending/backend/internal/application/lending"
	"github.com/lending/backend/internal/infrastructure/scheduler"
	"github.com/lending/backend/internal/interfaces/http/dto"
)

// ProcessingHandler handles bank date and end-of-day processing endpoints
type ProcessingHandler struct {
	BaseHandler
	service      *lendingapp.ProcessingService
	eodScheduler *scheduler.EndOfDayScheduler
}

// NewProcessingHandler creates a new ProcessingHandler. The scheduler may be
// nil when cron-driven processing is disabled; manual runs still work through
// the service.
func NewProcessingHandler(service *lendingapp.ProcessingService, eodScheduler *scheduler.EndOfDayScheduler) *ProcessingHandler {
	return &ProcessingHandler{
		service:      service,
		eodScheduler: eodScheduler,
	}
}

// BankDateResponse carries the bank's current operational date
type BankDateResponse struct {
	CurrentDate time.Time `json:"current_date"`
}

// SetBankDateRequest represents a request to move the bank's clock
// @Description Request body for setting the bank's current date
type SetBankDateRequest struct {
	CurrentDate time.Time `json:"current_date" binding:"required" example:"2026-05-15T00:00:00Z"`
}

// GetBankDate godoc
// @ID           getBankDate
// @Summary      Get the bank's current date
// @Tags         processing
// @Produce      json
// @Success      200 {object} APIResponse[BankDateResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /lending/processing/date [get]
func (h *ProcessingHandler) GetBankDate(c *gin.Context) {
	date, err := h.service.GetCurrentDate(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, BankDateResponse{CurrentDate: date})
}

// SetBankDate godoc
// @ID           setBankDate
// @Summary      Set the bank's current date
// @Description  Moves the bank clock directly; intended for test and demo environments
// @Tags         processing
// @Accept       json
// @Produce      json
// @Param        request body SetBankDateRequest true "Bank date request"
// @Success      200 {object} APIResponse[BankDateResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /lending/processing/date [put]
func (h *ProcessingHandler) SetBankDate(c *gin.Context) {
	var req SetBankDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.service.SetCurrentDate(c.Request.Context(), req.CurrentDate); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, BankDateResponse{CurrentDate: req.CurrentDate})
}

// ProcessEndOfDay godoc
// @ID           processEndOfDay
// @Summary      Run end-of-day processing
// @Description  Sweeps parked payments into debt, accrues interest on the last day of the month and advances the bank date
// @Tags         processing
// @Produce      json
// @Success      200 {object} APIResponse[BankDateResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /lending/processing/end-of-day [post]
func (h *ProcessingHandler) ProcessEndOfDay(c *gin.Context) {
	newDate, err := h.service.ProcessEndOfDay(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, BankDateResponse{CurrentDate: newDate})
}

// SchedulerStatus godoc
// @ID           getSchedulerStatus
// @Summary      Get end-of-day scheduler status
// @Tags         processing
// @Produce      json
// @Success      200 {object} APIResponse[map[string]interface{}]
// @Router       /lending/processing/scheduler [get]
func (h *ProcessingHandler) SchedulerStatus(c *gin.Context) {
	if h.eodScheduler == nil {
		h.Success(c, gin.H{"enabled": false})
		return
	}
	h.Success(c, h.eodScheduler.GetStatus())
}

// TriggerSchedulerRun godoc
// @ID           triggerSchedulerRun
// @Summary      Trigger a manual end-of-day scheduler run
// @Description  Starts an end-of-day run through the scheduler, applying its retry policy
// @Tags         processing
// @Produce      json
// @Success      202 {object} SuccessResponse
// @Failure      409 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /lending/processing/scheduler/run [post]
func (h *ProcessingHandler) TriggerSchedulerRun(c *gin.Context) {
	if h.eodScheduler == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInvalidState, "Scheduler is not enabled")
		return
	}

	if err := h.eodScheduler.TriggerManualRun(c.Request.Context()); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrRunInProgress):
			h.Error(c, http.StatusConflict, dto.ErrCodeProcessingLocked, "End-of-day run already in progress")
		case errors.Is(err, scheduler.ErrSchedulerNotRunning):
			h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInvalidState, "Scheduler is not running")
		default:
			h.HandleError(c, err)
		}
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(nil))
}
