package handler

import (
	"private-checkout-gateway/internal/adapter/http/dto"
	"private-checkout-gateway/internal/adapter/http/middleware"
	"private-checkout-gateway/internal/core/domain"
	"private-checkout-gateway/internal/core/ports"
	"private-checkout-gateway/pkg/apperror"
	"private-checkout-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderPayment carries the base64-encoded payment proof.
const HeaderPayment = "X-Payment"

// CheckoutHandler handles checkout lifecycle endpoints.
type CheckoutHandler struct {
	checkoutSvc ports.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutSvc ports.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutSvc: checkoutSvc}
}

// Create handles POST /api/v1/checkouts (merchant-authenticated).
func (h *CheckoutHandler) Create(c *gin.Context) {
	merchantID, ok := middleware.MerchantID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	checkout, err := h.checkoutSvc.Create(c.Request.Context(), ports.CreateCheckoutRequest{
		MerchantID:     merchantID,
		Name:           req.Name,
		Amount:         req.Amount.String(),
		SettlementMode: domain.SettlementMode(req.SettlementMode),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromCheckout(checkout))
}

// List handles GET /api/v1/checkouts (merchant-authenticated).
func (h *CheckoutHandler) List(c *gin.Context) {
	merchantID, ok := middleware.MerchantID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)

	list, err := h.checkoutSvc.List(c.Request.Context(), merchantID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromCheckouts(list))
}

// Get handles GET /api/v1/checkouts/:id (public). Pending checkouts without
// an acceptable payment proof are answered with HTTP 402 and a challenge.
func (h *CheckoutHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	checkout, challenge, err := h.checkoutSvc.Get(c.Request.Context(), id, c.GetHeader(HeaderPayment))
	if err != nil {
		response.Error(c, err)
		return
	}
	if challenge != nil {
		response.PaymentRequired(c, challenge)
		return
	}

	response.OK(c, dto.FromCheckout(checkout))
}

// PayDirect handles POST /api/v1/checkouts/:id/pay (public).
func (h *CheckoutHandler) PayDirect(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	checkout, err := h.checkoutSvc.PayDirect(c.Request.Context(), id, c.GetHeader(HeaderPayment))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromCheckout(checkout))
}

// Shield handles POST /api/v1/checkouts/:id/shield (public).
func (h *CheckoutHandler) Shield(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.ShieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	checkout, err := h.checkoutSvc.RecordShield(c.Request.Context(), id, req.ProofRef)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromCheckout(checkout))
}

// Settle handles POST /api/v1/checkouts/:id/settle (public).
func (h *CheckoutHandler) Settle(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	checkout, err := h.checkoutSvc.SettlePrivately(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromCheckout(checkout))
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid checkout id")
	}
	return id, nil
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n := 0
	for _, r := range v {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	return n
}
