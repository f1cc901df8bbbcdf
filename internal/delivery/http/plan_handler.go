package http

import (
	"strings"

	"github.com/labstack/echo/v4"

	"signaldesk/internal/delivery/http/dto"
	"signaldesk/internal/domain"
	"signaldesk/internal/service"
)

// PlanHandler serves the plan catalog
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// List returns active plans
// GET /api/plans
func (h *PlanHandler) List(c echo.Context) error {
	plans, err := h.planService.List(c.Request().Context(), false)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, plans)
}

// Get returns one plan
// GET /api/plans/:tier
func (h *PlanHandler) Get(c echo.Context) error {
	plan, err := h.planService.GetByTier(c.Request().Context(), strings.ToLower(c.Param("tier")))
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, plan)
}

// ListAll returns every plan including hidden ones
// GET /api/admin/plans
func (h *PlanHandler) ListAll(c echo.Context) error {
	plans, err := h.planService.List(c.Request().Context(), true)
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, plans)
}

// Upsert creates or replaces a plan
// PUT /api/admin/plans
func (h *PlanHandler) Upsert(c echo.Context) error {
	var req dto.PlanRequest
	if err := bind(c, &req); err != nil {
		return HandleError(c, err)
	}

	plan, err := h.planService.Upsert(c.Request().Context(), &domain.Plan{
		Tier:        strings.ToLower(strings.TrimSpace(req.Tier)),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		Period:      strings.ToLower(strings.TrimSpace(req.Period)),
		Features:    req.Features,
		IsActive:    req.IsActive,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		return HandleError(c, err)
	}
	return SuccessResponse(c, plan)
}

// SetActive shows or hides a plan
// PUT /api/admin/plans/:tier/active
func (h *PlanHandler) SetActive(c echo.Context) error {
	var req dto.SetActiveRequest
	if err := bind(c, &req); err != nil {
		return HandleError(c, err)
	}

	if err := h.planService.SetActive(c.Request().Context(), strings.ToLower(c.Param("tier")), req.Active); err != nil {
		return HandleError(c, err)
	}
	return SuccessMessageResponse(c, "Plan updated", map[string]bool{"active": req.Active})
}
