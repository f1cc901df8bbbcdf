package http

import (
	"github.com/labstack/echo/v4"

	"signaldesk/internal/delivery/http/dto"
	"signaldesk/internal/service"
)

// CustomerServiceHandler handles customer-service console requests
type CustomerServiceHandler struct {
	customerService service.CustomerService
}

// NewCustomerServiceHandler creates a new CustomerServiceHandler
func NewCustomerServiceHandler(customerService service.CustomerService) *CustomerServiceHandler {
	return &CustomerServiceHandler{customerService: customerService}
}

// SearchUsers finds accounts by email or name fragment
// GET /api/cs/users?q=
func (h *CustomerServiceHandler) SearchUsers(c echo.Context) error {
	users, err := h.customerService.SearchUsers(c.Request().Context(), c.QueryParam("q"), queryInt(c, "limit", 20))
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, dto.NewUserOutputs(users))
}

// GetUser returns the support overview of one account
// GET /api/cs/users/:id
func (h *CustomerServiceHandler) GetUser(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	overview, err := h.customerService.UserOverview(c.Request().Context(), id)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, overview)
}

// ExtendSubscription grants extra days on the active subscription
// POST /api/cs/users/:id/subscription/extend
func (h *CustomerServiceHandler) ExtendSubscription(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	var req dto.ExtendSubscriptionRequest
	if err := bind(c, &req); err != nil {
		return HandleError(c, err)
	}

	sub, err := h.customerService.ExtendSubscription(c.Request().Context(), id, req.Days)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessMessageResponse(c, "Subscription extended", sub)
}
