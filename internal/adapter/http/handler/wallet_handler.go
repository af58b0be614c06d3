package handler

import (
	"private-checkout-gateway/internal/adapter/http/dto"
	"private-checkout-gateway/internal/adapter/http/middleware"
	"private-checkout-gateway/internal/core/ports"
	"private-checkout-gateway/pkg/apperror"
	"private-checkout-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles merchant wallet endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// GetOwn handles GET /api/v1/wallets/me (merchant-authenticated).
func (h *WalletHandler) GetOwn(c *gin.Context) {
	merchantID, ok := middleware.MerchantID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.walletSvc.GetOwn(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromWallet(wallet))
}
