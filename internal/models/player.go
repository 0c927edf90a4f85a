package models

import "time"

// DefaultStartingPoints is granted to a player on first interaction.
const DefaultStartingPoints int64 = 100

// SettledWagerRecord is an immutable history entry appended at settlement.
// PointsDelta is the net effect of the round on the player's balance
// relative to the moment before the wager was placed: a correct staked
// wager nets the bonus (stake comes back), an incorrect one nets -stake.
type SettledWagerRecord struct {
	Category    Category  `json:"category"`
	Direction   Direction `json:"direction"`
	Correct     bool      `json:"correct"`
	PointsDelta int64     `json:"points_delta"`
	SettledAt   time.Time `json:"settled_at"`
}

type Player struct {
	ID             string               `json:"id"`
	DisplayName    string               `json:"display_name"`
	Points         int64                `json:"points"`
	LastDailyClaim time.Time            `json:"last_daily_claim"`
	History        []SettledWagerRecord `json:"history,omitempty"`
	Subscriptions  []Category           `json:"subscriptions,omitempty"`
}

func NewPlayer(id, displayName string) *Player {
	return &Player{
		ID:          id,
		DisplayName: displayName,
		Points:      DefaultStartingPoints,
	}
}

func (p *Player) Subscribed(c Category) bool {
	for _, s := range p.Subscriptions {
		if s == c {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers never hold a reference into
// ledger-owned state.
func (p *Player) Clone() *Player {
	out := *p
	if len(p.History) > 0 {
		out.History = make([]SettledWagerRecord, len(p.History))
		copy(out.History, p.History)
	}
	if len(p.Subscriptions) > 0 {
		out.Subscriptions = make([]Category, len(p.Subscriptions))
		copy(out.Subscriptions, p.Subscriptions)
	}
	return &out
}
