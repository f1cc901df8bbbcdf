package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Signal is a trading recommendation published to subscribers
type Signal struct {
	ID         uuid.UUID  `json:"id"`
	Symbol     string     `json:"symbol"`
	Direction  string     `json:"direction"`
	EntryPrice float64    `json:"entry_price"`
	StopLoss   float64    `json:"stop_loss"`
	TakeProfit float64    `json:"take_profit"`
	Timeframe  string     `json:"timeframe,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	Status     string     `json:"status"`
	Result     *string    `json:"result,omitempty"`
	MinTier    string     `json:"min_tier"`
	CreatedBy  uuid.UUID  `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
}

// SignalDirection constants
const (
	DirectionLong  = "LONG"
	DirectionShort = "SHORT"
)

// SignalStatus constants
const (
	SignalActive    = "ACTIVE"
	SignalClosed    = "CLOSED"
	SignalCancelled = "CANCELLED"
)

// SignalResult constants
const (
	ResultWin       = "WIN"
	ResultLoss      = "LOSS"
	ResultBreakeven = "BREAKEVEN"
)

// SignalFilter narrows signal listings
type SignalFilter struct {
	Symbol string
	Status string
	Limit  int
	Offset int
}

const (
	DefaultSignalLimit = 50
	MaxSignalLimit     = 200
)

// Normalize applies default and maximum page sizes
func (f *SignalFilter) Normalize() {
	f.Symbol = strings.ToUpper(strings.TrimSpace(f.Symbol))
	f.Status = strings.ToUpper(strings.TrimSpace(f.Status))
	if f.Limit <= 0 {
		f.Limit = DefaultSignalLimit
	}
	if f.Limit > MaxSignalLimit {
		f.Limit = MaxSignalLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// Validate normalizes the symbol and checks the price ladder for the direction
func (s *Signal) Validate() error {
	s.Symbol = strings.ToUpper(strings.TrimSpace(s.Symbol))
	if s.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidInput)
	}
	if s.EntryPrice <= 0 || s.StopLoss <= 0 || s.TakeProfit <= 0 {
		return fmt.Errorf("%w: entry, stop loss and take profit must be positive", ErrInvalidInput)
	}

	switch s.Direction {
	case DirectionLong:
		if !(s.StopLoss < s.EntryPrice && s.EntryPrice < s.TakeProfit) {
			return fmt.Errorf("%w: LONG requires stop loss < entry < take profit", ErrInvalidInput)
		}
	case DirectionShort:
		if !(s.TakeProfit < s.EntryPrice && s.EntryPrice < s.StopLoss) {
			return fmt.Errorf("%w: SHORT requires take profit < entry < stop loss", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: direction must be LONG or SHORT", ErrInvalidInput)
	}

	if s.MinTier == "" {
		s.MinTier = TierKickstarter
	}
	if !IsValidTier(s.MinTier) {
		return fmt.Errorf("%w: unknown min tier %q", ErrInvalidInput, s.MinTier)
	}
	return nil
}

// IsValidResult reports whether result can close a signal
func IsValidResult(result string) bool {
	switch result {
	case ResultWin, ResultLoss, ResultBreakeven:
		return true
	}
	return false
}
