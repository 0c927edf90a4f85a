package models

import "time"

// Wager is a player's staked prediction on one round. Stake 0 is a
// free reaction prediction. At most one wager exists per (player,
// round); leverage mutates the stake of the existing entry.
type Wager struct {
	PlayerID  string    `json:"player_id"`
	Category  Category  `json:"category"`
	Stake     int64     `json:"stake"`
	Direction Direction `json:"direction"`
	PlacedAt  time.Time `json:"placed_at"`
}
