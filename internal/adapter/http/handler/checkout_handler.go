package handler

import (
	"errors"
	"io"
	"net/http"

	"checkout-session-engine/internal/adapter/http/dto"
	"checkout-session-engine/internal/adapter/http/middleware"
	"checkout-session-engine/internal/core/ports"
	"checkout-session-engine/pkg/apperror"
	"checkout-session-engine/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CheckoutHandler handles the checkout session endpoints.
type CheckoutHandler struct {
	checkoutSvc ports.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutSvc ports.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutSvc: checkoutSvc}
}

// bindError maps a JSON bind failure to the client-facing error. A
// tripped body-size limit surfaces as 413, anything else as a
// validation failure.
func bindError(err error) *apperror.AppError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperror.ErrPayloadTooLarge()
	}
	return apperror.Validation(err.Error())
}

// Create handles POST /checkout_sessions.
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	dto.SanitizeStruct(&req)

	session, err := h.checkoutSvc.Create(c.Request.Context(), ports.CreateSessionRequest{
		Meta:               middleware.Meta(c),
		Items:              dto.ItemsToDomain(req.Items),
		Buyer:              req.Buyer.ToDomain(),
		FulfillmentDetails: req.FulfillmentDetails.ToDomain(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, session)
}

// Get handles GET /checkout_sessions/:id.
func (h *CheckoutHandler) Get(c *gin.Context) {
	session, err := h.checkoutSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// Update handles POST /checkout_sessions/:id.
func (h *CheckoutHandler) Update(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	dto.SanitizeStruct(&req)

	session, err := h.checkoutSvc.Update(c.Request.Context(), c.Param("id"), ports.UpdateSessionRequest{
		Meta:                       middleware.Meta(c),
		Items:                      dto.ItemsToDomain(req.Items),
		Buyer:                      req.Buyer.ToDomain(),
		FulfillmentDetails:         req.FulfillmentDetails.ToDomain(),
		SelectedFulfillmentOptions: dto.SelectionsToDomain(req.SelectedFulfillmentOptions),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, session)
}

// Complete handles POST /checkout_sessions/:id/complete.
func (h *CheckoutHandler) Complete(c *gin.Context) {
	var req dto.CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An empty body or an absent payment_data block both mean the
		// caller skipped payment data; anything else is malformed input.
		var ve validator.ValidationErrors
		if errors.Is(err, io.EOF) || (errors.As(err, &ve) && ve[0].Field() == "PaymentData") {
			response.Error(c, apperror.ErrMissingPaymentData())
		} else {
			response.Error(c, bindError(err))
		}
		return
	}
	dto.SanitizeStruct(&req)

	session, err := h.checkoutSvc.Complete(c.Request.Context(), c.Param("id"), ports.CompleteSessionRequest{
		Meta:        middleware.Meta(c),
		PaymentData: req.PaymentData.ToDomain(),
		Buyer:       req.Buyer.ToDomain(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, session)
}

// Cancel handles POST /checkout_sessions/:id/cancel.
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	session, err := h.checkoutSvc.Cancel(c.Request.Context(), c.Param("id"), middleware.Meta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}
