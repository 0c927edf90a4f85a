package game

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wab3io/MarketMover/internal/ledger"
	"github.com/wab3io/MarketMover/internal/models"
)

// DefaultBaseReward is the fixed bonus for a correct prediction.
const DefaultBaseReward int64 = 10

// SettlementLine is one player's result within a settled round.
type SettlementLine struct {
	PlayerID    string
	DisplayName string
	Direction   models.Direction
	Correct     bool
	Stake       int64
	Payout      int64
	NewBalance  int64
}

// SettlementReport aggregates a settled round for announcement.
type SettlementReport struct {
	ID         string
	Round      models.Round
	Outcome    models.Outcome
	Multiplier int64
	Lines      []SettlementLine
	Stale      int
}

// Settler resolves locked rounds against an outcome and pays out
// through the ledger. A round settles exactly once: the Locked status
// check and the final Settled transition happen under the table mutex,
// so a repeated call is rejected with no balance change.
type Settler struct {
	Table      *Table
	Ledger     *ledger.Ledger
	Logger     *zap.Logger
	BaseReward int64
}

// Settle pays out every honored wager on the round, appends history,
// clears the wager entries, and removes the round. The table mutex is
// held for the whole pass so no wager or lock transition can interleave.
func (s *Settler) Settle(guildID string, category models.Category, outcome models.Outcome, multiplier int64) (*SettlementReport, error) {
	if multiplier < 1 {
		multiplier = 1
	}
	base := s.BaseReward
	if base <= 0 {
		base = DefaultBaseReward
	}

	key := roundKey{guildID, category}
	t := s.Table
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.rounds[key]
	if !ok || r.Status != models.RoundLocked {
		return nil, models.ErrRoundNotSettleable
	}

	now := t.now()
	report := &SettlementReport{
		ID:         uuid.New().String(),
		Outcome:    outcome,
		Multiplier: multiplier,
	}

	for _, w := range t.sortedWagers(key) {
		// Wagers placed outside the accept window were committed but
		// are not honored; the stake stays forfeited.
		if w.PlacedAt.Sub(r.OpenedAt) > t.AcceptWindow {
			report.Stale++
			continue
		}
		correct := w.Direction == outcome.Direction
		var payout int64
		if correct {
			payout = w.Stake*multiplier + base*multiplier
		}
		balance, err := s.Ledger.Credit(w.PlayerID, payout)
		if err != nil {
			// Credit only fails for an unknown player, which placement
			// prevents; log and keep the pass going.
			if s.Logger != nil {
				s.Logger.Warn("settlement credit failed",
					zap.String("player", w.PlayerID), zap.Error(err))
			}
			continue
		}
		delta := payout - w.Stake
		s.Ledger.AppendHistory(w.PlayerID, models.SettledWagerRecord{
			Category:    category,
			Direction:   w.Direction,
			Correct:     correct,
			PointsDelta: delta,
			SettledAt:   now,
		})
		name := w.PlayerID
		if p, ok := s.Ledger.Get(w.PlayerID); ok {
			name = p.DisplayName
		}
		report.Lines = append(report.Lines, SettlementLine{
			PlayerID:    w.PlayerID,
			DisplayName: name,
			Direction:   w.Direction,
			Correct:     correct,
			Stake:       w.Stake,
			Payout:      payout,
			NewBalance:  balance,
		})
	}

	r.Status = models.RoundSettled
	report.Round = *r
	delete(t.rounds, key)
	delete(t.wagers, key)
	return report, nil
}
