package dto

// SignalRequest is the admin payload for publishing or editing a signal
type SignalRequest struct {
	Symbol     string  `json:"symbol"`
	Direction  string  `json:"direction"`
	EntryPrice float64 `json:"entry_price"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
	Timeframe  string  `json:"timeframe"`
	Notes      string  `json:"notes"`
	MinTier    string  `json:"min_tier"`
}

// CloseSignalRequest closes a signal with a result
type CloseSignalRequest struct {
	Result string `json:"result"` // WIN, LOSS or BREAKEVEN
}
