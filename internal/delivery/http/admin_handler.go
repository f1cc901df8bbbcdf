package http

import (
	"github.com/labstack/echo/v4"

	"signaldesk/internal/delivery/http/dto"
	"signaldesk/internal/domain"
	"signaldesk/internal/middleware"
	"signaldesk/internal/service"
)

// AdminHandler handles admin console requests
type AdminHandler struct {
	adminService        service.AdminService
	purchaseService     service.PurchaseService
	notificationService service.NotificationService
	streams             StreamServer
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	adminService service.AdminService,
	purchaseService service.PurchaseService,
	notificationService service.NotificationService,
	streams StreamServer,
) *AdminHandler {
	return &AdminHandler{
		adminService:        adminService,
		purchaseService:     purchaseService,
		notificationService: notificationService,
		streams:             streams,
	}
}

// GetDashboard returns the console overview
// GET /api/admin/dashboard
func (h *AdminHandler) GetDashboard(c echo.Context) error {
	stats, err := h.adminService.Dashboard(c.Request().Context())
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, stats)
}

// ListUsers searches accounts
// GET /api/admin/users?q=&limit=&offset=
func (h *AdminHandler) ListUsers(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	users, total, err := h.adminService.ListUsers(c.Request().Context(), c.QueryParam("q"), limit, offset)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, ListData{Items: dto.NewUserOutputs(users), Total: total, Limit: limit, Offset: offset})
}

// SetUserRole changes a user's role
// PUT /api/admin/users/:id/role
func (h *AdminHandler) SetUserRole(c echo.Context) error {
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Unauthorized")
	}
	userID, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	var req dto.SetRoleRequest
	if err := bind(c, &req); err != nil {
		return HandleError(c, err)
	}

	user, err := h.adminService.SetRole(c.Request().Context(), actorID, userID, req.Role)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, dto.NewUserOutput(user))
}

// ListPurchases pages through all purchases
// GET /api/admin/purchases
func (h *AdminHandler) ListPurchases(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	purchases, total, err := h.purchaseService.ListAll(c.Request().Context(), limit, offset)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, ListData{Items: purchases, Total: total, Limit: limit, Offset: offset})
}

// RefundPurchase refunds a purchase and cancels what it paid for
// POST /api/admin/purchases/:id/refund
func (h *AdminHandler) RefundPurchase(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	purchase, err := h.purchaseService.Refund(c.Request().Context(), id)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessMessageResponse(c, "Purchase refunded", purchase)
}

// ListNotifications returns the notification feed
// GET /api/admin/notifications?unread=true
func (h *AdminHandler) ListNotifications(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	items, total, err := h.notificationService.List(c.Request().Context(), queryBool(c, "unread"), limit, offset)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, ListData{Items: items, Total: total, Limit: limit, Offset: offset})
}

// UnreadCount returns the unread badge count
// GET /api/admin/notifications/unread-count
func (h *AdminHandler) UnreadCount(c echo.Context) error {
	n, err := h.notificationService.UnreadCount(c.Request().Context())
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, map[string]int{"unread": n})
}

// MarkNotificationRead marks one notification read
// POST /api/admin/notifications/:id/read
func (h *AdminHandler) MarkNotificationRead(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	if err := h.notificationService.MarkRead(c.Request().Context(), id); err != nil {
		return HandleError(c, err)
	}
	return SuccessMessageResponse(c, "Notification marked as read", nil)
}

// MarkAllNotificationsRead clears the unread badge
// POST /api/admin/notifications/read-all
func (h *AdminHandler) MarkAllNotificationsRead(c echo.Context) error {
	n, err := h.notificationService.MarkAllRead(c.Request().Context())
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, map[string]int64{"updated": n})
}

// NotificationStream pushes new notifications to the console over a websocket
// GET /api/admin/notifications/stream
func (h *AdminHandler) NotificationStream(c echo.Context) error {
	_ = h.streams.Serve(c.Response(), c.Request(), domain.TopicAdmin)
	return nil
}
