package dto

// PurchaseRequest buys a plan
type PurchaseRequest struct {
	Tier             string `json:"tier"`
	PaymentReference string `json:"payment_reference"`
}

// SetRoleRequest changes a user's role
type SetRoleRequest struct {
	Role string `json:"role"`
}

// ExtendSubscriptionRequest adds days to a subscription
type ExtendSubscriptionRequest struct {
	Days int `json:"days"`
}

// PlanRequest creates or replaces a plan
type PlanRequest struct {
	Tier        string   `json:"tier"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Currency    string   `json:"currency"`
	Period      string   `json:"period"`
	Features    []string `json:"features"`
	IsActive    bool     `json:"is_active"`
	SortOrder   int      `json:"sort_order"`
}

// SetActiveRequest shows or hides a plan
type SetActiveRequest struct {
	Active bool `json:"active"`
}
