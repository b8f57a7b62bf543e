package handler

import (
	"net/http"

	"github.com/dafibh/piflow/piflow-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// AddressHandler resolves wallet credentials to public addresses
type AddressHandler struct {
	keypairService *service.KeypairService
}

// NewAddressHandler creates a new AddressHandler
func NewAddressHandler(keypairService *service.KeypairService) *AddressHandler {
	return &AddressHandler{keypairService: keypairService}
}

// AddressResponse represents a derived address
type AddressResponse struct {
	Address string `json:"address"`
}

// CheckAddress derives the public address for a mnemonic phrase or secret
// seed without touching the ledger. The credential is never stored.
func (h *AddressHandler) CheckAddress(c echo.Context) error {
	mnemonic := c.QueryParam("mnemonic")
	if mnemonic == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "mnemonic", Message: "Mnemonic is required"},
		})
	}

	kp, err := h.keypairService.Derive(mnemonic)
	if err != nil {
		return NewValidationError(c, "Invalid mnemonic", []ValidationError{
			{Field: "mnemonic", Message: err.Error()},
		})
	}

	return c.JSON(http.StatusOK, AddressResponse{Address: kp.Address()})
}
