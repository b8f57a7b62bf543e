package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/piflow/piflow-backend/internal/domain"
	"github.com/dafibh/piflow/piflow-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// TransferHandler handles transfer-related HTTP requests
type TransferHandler struct {
	transferService *service.TransferService
	transferWorker  *service.TransferWorker
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transferService *service.TransferService, transferWorker *service.TransferWorker) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		transferWorker:  transferWorker,
	}
}

// TransferRequestBody represents the transfer request body
type TransferRequestBody struct {
	Destination string   `json:"destination"`
	Amount      string   `json:"amount"`
	Seeds       []string `json:"seeds"`
}

// TransferResponse represents the outcome of a one-shot transfer run
type TransferResponse struct {
	Results []domain.TransactionResult `json:"results"`
}

// LoopResponse represents the state of the continuous transfer loop
type LoopResponse struct {
	Message   string `json:"message"`
	Running   bool   `json:"running"`
	SessionID string `json:"sessionId,omitempty"`
}

func (h *TransferHandler) bindRequest(c echo.Context) (*domain.TransferRequest, error) {
	var body TransferRequestBody
	if err := c.Bind(&body); err != nil {
		return nil, NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		return nil, NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	req := &domain.TransferRequest{
		Destination: body.Destination,
		Amount:      amount,
		Seeds:       body.Seeds,
	}

	if err := h.transferService.ValidateRequest(req); err != nil {
		return nil, NewValidationError(c, err.Error(), nil)
	}

	return req, nil
}

// Transfer runs one full fan-out pass and reports per-seed outcomes.
// The response always contains one result per submitted seed, successes
// and failures mixed, in seed order.
func (h *TransferHandler) Transfer(c echo.Context) error {
	req, err := h.bindRequest(c)
	if err != nil {
		return err
	}

	results := h.transferService.ProcessAll(c.Request().Context(), req)
	if len(results) == 0 {
		return NewInternalError(c, "Transfer produced no results")
	}

	return c.JSON(http.StatusOK, TransferResponse{Results: results})
}

// StartLoop begins the continuous transfer loop. Calling it while a loop
// is active reports the existing session instead of starting a second one.
func (h *TransferHandler) StartLoop(c echo.Context) error {
	req, err := h.bindRequest(c)
	if err != nil {
		return err
	}

	sessionID, err := h.transferWorker.Start(req)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyRunning) {
			return c.JSON(http.StatusOK, LoopResponse{
				Message:   "Transfer already running.",
				Running:   true,
				SessionID: sessionID.String(),
			})
		}
		return NewValidationError(c, err.Error(), nil)
	}

	return c.JSON(http.StatusOK, LoopResponse{
		Message:   "Continuous transfer started.",
		Running:   true,
		SessionID: sessionID.String(),
	})
}

// StopLoop signals the active loop and waits for it to wind down. It is a
// no-op when nothing is running.
func (h *TransferHandler) StopLoop(c echo.Context) error {
	h.transferWorker.Stop()
	return c.JSON(http.StatusOK, LoopResponse{
		Message: "Transfer stopped.",
		Running: false,
	})
}

// Status reports whether the continuous loop is active
func (h *TransferHandler) Status(c echo.Context) error {
	resp := LoopResponse{Running: h.transferWorker.IsRunning()}
	if resp.Running {
		resp.SessionID = h.transferWorker.SessionID().String()
		resp.Message = "Transfer running."
	} else {
		resp.Message = "No transfer running."
	}
	return c.JSON(http.StatusOK, resp)
}
