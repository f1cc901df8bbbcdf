package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"signaldesk/internal/delivery/http/dto"
	"signaldesk/internal/domain"
	"signaldesk/internal/middleware"
	"signaldesk/internal/service"
)

// StreamServer upgrades a request into a websocket subscribed to topic
type StreamServer interface {
	Serve(w http.ResponseWriter, r *http.Request, topic string) error
}

// SignalHandler serves signals to subscribers and manages them for admins
type SignalHandler struct {
	signalService service.SignalService
	streams       StreamServer
}

// NewSignalHandler creates a new SignalHandler
func NewSignalHandler(signalService service.SignalService, streams StreamServer) *SignalHandler {
	return &SignalHandler{signalService: signalService, streams: streams}
}

func signalFilter(c echo.Context) domain.SignalFilter {
	return domain.SignalFilter{
		Symbol: c.QueryParam("symbol"),
		Status: c.QueryParam("status"),
		Limit:  queryInt(c, "limit", domain.DefaultSignalLimit),
		Offset: queryInt(c, "offset", 0),
	}
}

func toInput(req dto.SignalRequest) service.SignalInput {
	return service.SignalInput{
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		EntryPrice: req.EntryPrice,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Timeframe:  req.Timeframe,
		Notes:      req.Notes,
		MinTier:    req.MinTier,
	}
}

// List returns the signals the caller's subscription can read. Admins see everything.
// GET /api/signals
func (h *SignalHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	filter := signalFilter(c)

	if role, _ := middleware.GetUserRole(c); role == domain.RoleAdmin {
		signals, err := h.signalService.ListAll(ctx, filter)
		if err != nil {
			return HandleError(c, err)
		}
		return SuccessResponse(c, signals)
	}

	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Unauthorized")
	}
	signals, err := h.signalService.ListVisible(ctx, userID, filter)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, signals)
}

// Get returns one visible signal
// GET /api/signals/:id
func (h *SignalHandler) Get(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}
	ctx := c.Request().Context()

	if role, _ := middleware.GetUserRole(c); role == domain.RoleAdmin {
		sig, err := h.signalService.Get(ctx, id)
		if err != nil {
			return HandleError(c, err)
		}
		return SuccessResponse(c, sig)
	}

	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Unauthorized")
	}
	sig, err := h.signalService.GetVisible(ctx, userID, id)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, sig)
}

// Stream pushes signal events for the caller's tier over a websocket
// GET /api/signals/stream
func (h *SignalHandler) Stream(c echo.Context) error {
	tier := domain.TierEnterprise
	if sub := middleware.GetSubscription(c); sub != nil {
		tier = sub.PlanTier
	}
	// on failure the upgrader has already written the handshake error
	_ = h.streams.Serve(c.Response(), c.Request(), domain.SignalTopic(tier))
	return nil
}

// AdminList returns all signals
// GET /api/admin/signals
func (h *SignalHandler) AdminList(c echo.Context) error {
	signals, err := h.signalService.ListAll(c.Request().Context(), signalFilter(c))
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, signals)
}

// Create publishes a signal
// POST /api/admin/signals
func (h *SignalHandler) Create(c echo.Context) error {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Unauthorized")
	}

	var req dto.SignalRequest
	if err := bind(c, &req); err != nil {
		return HandleError(c, err)
	}

	sig, err := h.signalService.Publish(c.Request().Context(), adminID, toInput(req))
	if err != nil {
		return HandleError(c, err)
	}
	return CreatedResponse(c, sig)
}

// Update edits an active signal
// PUT /api/admin/signals/:id
func (h *SignalHandler) Update(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	var req dto.SignalRequest
	if err := bind(c, &req); err != nil {
		return HandleError(c, err)
	}

	sig, err := h.signalService.Update(c.Request().Context(), id, toInput(req))
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, sig)
}

// Close records the outcome of a signal
// POST /api/admin/signals/:id/close
func (h *SignalHandler) Close(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	var req dto.CloseSignalRequest
	if err := bind(c, &req); err != nil {
		return HandleError(c, err)
	}

	sig, err := h.signalService.Close(c.Request().Context(), id, req.Result)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, sig)
}

// Cancel withdraws an active signal
// POST /api/admin/signals/:id/cancel
func (h *SignalHandler) Cancel(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	sig, err := h.signalService.Cancel(c.Request().Context(), id)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, sig)
}

// Delete removes a signal
// DELETE /api/admin/signals/:id
func (h *SignalHandler) Delete(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(c, err)
	}

	if err := h.signalService.Delete(c.Request().Context(), id); err != nil {
		return HandleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
