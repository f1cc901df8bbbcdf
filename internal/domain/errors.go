package domain

import "errors"

// Sentinel errors shared by repositories, services and handlers.
var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrForbidden            = errors.New("forbidden")
	ErrSubscriptionRequired = errors.New("active subscription required")
	ErrPlanUnavailable      = errors.New("plan unavailable")
	ErrRateLimited          = errors.New("rate limited")
)
