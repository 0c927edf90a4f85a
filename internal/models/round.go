package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RoundStatus string

const (
	RoundOpen    RoundStatus = "open"
	RoundLocked  RoundStatus = "locked"
	RoundSettled RoundStatus = "settled"
)

// Asset is the immutable reference snapshot a round is opened against.
// Fallback marks a value that came from the provider's degraded path.
type Asset struct {
	Name     string          `json:"name"`
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Fallback bool            `json:"fallback,omitempty"`
}

type Round struct {
	ID       string      `json:"id"`
	GuildID  string      `json:"guild_id"`
	Category Category    `json:"category"`
	Asset    Asset       `json:"asset"`
	OpenedAt time.Time   `json:"opened_at"`
	Status   RoundStatus `json:"status"`
}

// Outcome is the resolved price movement a round settles against.
// Simulated marks an outcome produced without a live quote.
type Outcome struct {
	Direction Direction       `json:"direction"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
	Simulated bool            `json:"simulated,omitempty"`
}
