package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/service/anonymous"
	customersvc "storefront/internal/service/customer"
)

type errorBody struct {
	Error         string      `json:"error"`
	Message       string      `json:"message"`
	RetryCheckout bool        `json:"retryCheckout"`
	Stock         *stockError `json:"stock,omitempty"`
}

type stockError struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// errorStatus maps an error to its HTTP status and machine-readable code. The
// specific kinds are checked before the transaction wrapper.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrAuthenticationRequired),
		errors.Is(err, customersvc.ErrInvalidToken),
		errors.Is(err, anonymous.ErrInvalidToken):
		return http.StatusUnauthorized, "authentication_required"
	case errors.Is(err, customersvc.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, domain.ErrAuthorizationDenied):
		return http.StatusForbidden, "authorization_denied"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidReference):
		return http.StatusUnprocessableEntity, "invalid_reference"
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusUnprocessableEntity, "empty_cart"
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, domain.ErrDuplicateOrder):
		return http.StatusConflict, "duplicate_order"
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict, "insufficient_stock"
	case errors.Is(err, domain.ErrProductInactive):
		return http.StatusConflict, "product_inactive"
	case errors.Is(err, domain.ErrPaymentNotConfirmed):
		return http.StatusConflict, "payment_not_confirmed"
	case errors.Is(err, domain.ErrPaymentAmountMismatch):
		return http.StatusConflict, "payment_amount_mismatch"
	case errors.Is(err, domain.ErrPaymentProvider):
		return http.StatusBadGateway, "payment_provider_error"
	case errors.Is(err, domain.ErrTransactionAborted):
		return http.StatusServiceUnavailable, "transaction_aborted"
	}
	return http.StatusInternalServerError, "internal_error"
}

func (h *handlers) writeError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	body := errorBody{Error: code, Message: err.Error(), RetryCheckout: domain.RetryCheckout(err)}
	var se *domain.StockError
	if errors.As(err, &se) {
		body.Stock = &stockError{ProductID: se.ProductID, Requested: se.Requested, Available: se.Available}
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		if status == http.StatusInternalServerError {
			body.Message = "internal error"
		}
	}
	c.JSON(status, body)
}

func abortWithError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	c.AbortWithStatusJSON(status, errorBody{Error: code, Message: err.Error()})
}
