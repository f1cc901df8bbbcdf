package http

import (
	"github.com/labstack/echo/v4"

	"signaldesk/internal/delivery/http/dto"
	"signaldesk/internal/middleware"
	"signaldesk/internal/service"
)

// UserHandler serves the signed-in user's own account
type UserHandler struct {
	authService         service.AuthService
	subscriptionService service.SubscriptionService
	purchaseService     service.PurchaseService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(
	authService service.AuthService,
	subscriptionService service.SubscriptionService,
	purchaseService service.PurchaseService,
) *UserHandler {
	return &UserHandler{
		authService:         authService,
		subscriptionService: subscriptionService,
		purchaseService:     purchaseService,
	}
}

// GetMe returns the current user
// GET /api/me
func (h *UserHandler) GetMe(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Unauthorized")
	}

	user, err := h.authService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, dto.NewUserOutput(user))
}

// ChangePassword replaces the current user's password
// PUT /api/me/password
func (h *UserHandler) ChangePassword(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Unauthorized")
	}

	var req dto.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return HandleError(c, err)
	}

	if err := h.authService.ChangePassword(c.Request().Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		return HandleError(c, err)
	}
	return SuccessMessageResponse(c, "Password changed", nil)
}

// GetSubscription returns the active subscription
// GET /api/me/subscription
func (h *UserHandler) GetSubscription(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Unauthorized")
	}

	sub, err := h.subscriptionService.Current(c.Request().Context(), userID)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, sub)
}

// CancelSubscription ends the active subscription now
// DELETE /api/me/subscription
func (h *UserHandler) CancelSubscription(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Unauthorized")
	}

	sub, err := h.subscriptionService.Cancel(c.Request().Context(), userID)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessMessageResponse(c, "Subscription cancelled", sub)
}

// GetPurchases lists the user's purchases
// GET /api/me/purchases
func (h *UserHandler) GetPurchases(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Unauthorized")
	}

	purchases, err := h.purchaseService.ListMine(c.Request().Context(), userID)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, purchases)
}

// Purchase buys a plan
// POST /api/purchases
func (h *UserHandler) Purchase(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Unauthorized")
	}

	var req dto.PurchaseRequest
	if err := bind(c, &req); err != nil {
		return HandleError(c, err)
	}

	result, err := h.purchaseService.Purchase(c.Request().Context(), userID, req.Tier, req.PaymentReference)
	if err != nil {
		return HandleError(c, err)
	}
	return CreatedResponse(c, result)
}
