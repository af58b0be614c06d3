package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a generic input validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount(detail string) *AppError {
	return New("VAL_002", fmt.Sprintf("Invalid amount: %s", detail), http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrMerchantSuspended() *AppError {
	return New("AUTH_004", "Merchant account is suspended", http.StatusForbidden)
}

// ---- Checkout lifecycle (CHK) ----

func ErrNotFound(entity string) *AppError {
	return New("CHK_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrCheckoutCompleted() *AppError {
	return New("CHK_002", "Checkout is already completed", http.StatusConflict)
}

func ErrCheckoutNotPending() *AppError {
	return New("CHK_003", "Checkout is not in a payable state", http.StatusConflict)
}

func ErrWrongSettlementPath() *AppError {
	return New("CHK_004", "Operation is not valid for this checkout's settlement mode", http.StatusConflict)
}

func ErrAlreadyShielded() *AppError {
	return New("CHK_005", "Shield confirmation already recorded for this checkout", http.StatusConflict)
}

func ErrNotShielded() *AppError {
	return New("CHK_006", "No shield confirmation recorded for this checkout", http.StatusConflict)
}

func ErrCheckoutConflict() *AppError {
	return New("CHK_007", "Checkout was settled concurrently by another request", http.StatusConflict)
}

func ErrProofReused() *AppError {
	return New("CHK_008", "Payment proof was already used for a different checkout", http.StatusConflict)
}

// ---- External engine & chain (ENG) ----

func ErrEngineCall(err error) *AppError {
	return Wrap("ENG_001", "Privacy engine call failed", http.StatusBadGateway, err)
}

func ErrProvisioningTimeout(err error) *AppError {
	return Wrap("ENG_002", "Wallet provisioning timed out", http.StatusGatewayTimeout, err)
}

func ErrFundsNotVerified() *AppError {
	return New("ENG_003", "Shielded funds could not be verified at the checkout address", http.StatusConflict)
}

func ErrSettlementFailed(err error) *AppError {
	return Wrap("ENG_004", "Settlement attempt failed", http.StatusBadGateway, err)
}

func ErrTransferFailed(err error) *AppError {
	return Wrap("ENG_005", "Private transfer failed", http.StatusBadGateway, err)
}

func ErrDependencyUnconfigured(what string) *AppError {
	return New("ENG_006", fmt.Sprintf("Server dependency not configured: %s", what), http.StatusInternalServerError)
}

func ErrWalletNotProvisioned() *AppError {
	return New("ENG_007", "Merchant wallet has not been provisioned", http.StatusConflict)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_002", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
