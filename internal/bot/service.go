// Package bot is the chat-facing command surface. Every command
// validates input, calls into the ledger/game contracts, and returns
// the reply text; a rejected command changes no state.
package bot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wab3io/MarketMover/internal/game"
	"github.com/wab3io/MarketMover/internal/guilds"
	"github.com/wab3io/MarketMover/internal/ledger"
	"github.com/wab3io/MarketMover/internal/models"
	"github.com/wab3io/MarketMover/internal/render"
	"github.com/wab3io/MarketMover/internal/sched"
)

type Service struct {
	Ledger    *ledger.Ledger
	Table     *game.Table
	Guilds    *guilds.Registry
	Scheduler *sched.Scheduler
	Logger    *zap.Logger
	OwnerID   string
}

// Predict records a free prediction (also the reaction entry point).
func (s *Service) Predict(guildID, playerID, displayName, dirRaw, catRaw string) (string, error) {
	dir, err := models.ParseDirection(dirRaw)
	if err != nil {
		return "", err
	}
	cat, err := models.ParseCategory(catRaw)
	if err != nil {
		return "", err
	}
	p := s.Ledger.GetOrCreate(playerID, displayName)
	if err := s.Table.PlaceFreePrediction(guildID, playerID, cat, dir); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s predicted %s on %s for free. Current balance: %d",
		p.DisplayName, dir, cat, p.Points), nil
}

// Bet places a staked wager; the stake is debited atomically with it.
func (s *Service) Bet(guildID, playerID, displayName string, points int64, dirRaw, catRaw string) (string, error) {
	dir, err := models.ParseDirection(dirRaw)
	if err != nil {
		return "", err
	}
	cat, err := models.ParseCategory(catRaw)
	if err != nil {
		return "", err
	}
	if points <= 0 {
		return "", models.ErrInvalidAmount
	}
	p := s.Ledger.GetOrCreate(playerID, displayName)
	balance, err := s.Table.PlaceWager(guildID, playerID, cat, dir, points)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s wagered %d points on %s (%s). New balance: %d",
		p.DisplayName, points, cat, dir, balance), nil
}

// Leverage raises the stake on an existing wager.
func (s *Service) Leverage(guildID, playerID, displayName string, points int64, catRaw string) (string, error) {
	cat, err := models.ParseCategory(catRaw)
	if err != nil {
		return "", err
	}
	if points <= 0 {
		return "", models.ErrInvalidAmount
	}
	p := s.Ledger.GetOrCreate(playerID, displayName)
	total, balance, err := s.Table.IncreaseWager(guildID, playerID, cat, points)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s leveraged %d points on %s. Total wager: %d, new balance: %d",
		p.DisplayName, points, cat, total, balance), nil
}

// Daily claims the 24h bonus.
func (s *Service) Daily(playerID, displayName string) (string, error) {
	p := s.Ledger.GetOrCreate(playerID, displayName)
	balance, err := s.Ledger.ClaimDaily(playerID, time.Now())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s claimed the daily bonus. New balance: %d", p.DisplayName, balance), nil
}

// Tip transfers points to another player.
func (s *Service) Tip(fromID, fromName, toID, toName string, points int64) (string, error) {
	if points <= 0 {
		return "", models.ErrInvalidAmount
	}
	from := s.Ledger.GetOrCreate(fromID, fromName)
	to := s.Ledger.GetOrCreate(toID, toName)
	if err := s.Ledger.Transfer(fromID, toID, points); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s tipped %d points to %s.", from.DisplayName, points, to.DisplayName), nil
}

// Subscribe toggles round-open pings for a category.
func (s *Service) Subscribe(playerID, displayName, catRaw string) (string, error) {
	cat, err := models.ParseCategory(catRaw)
	if err != nil {
		return "", err
	}
	p := s.Ledger.GetOrCreate(playerID, displayName)
	on := !p.Subscribed(cat)
	s.Ledger.SetSubscription(playerID, cat, on)
	if on {
		return fmt.Sprintf("%s subscribed to %s rounds.", p.DisplayName, cat), nil
	}
	return fmt.Sprintf("%s unsubscribed from %s rounds.", p.DisplayName, cat), nil
}

// Profile shows a player's own record or a target's.
func (s *Service) Profile(playerID, displayName, targetID string) (string, error) {
	if targetID == "" {
		p := s.Ledger.GetOrCreate(playerID, displayName)
		return render.ProfileText(p), nil
	}
	p, ok := s.Ledger.Get(targetID)
	if !ok {
		return "", models.ErrUnknownPlayer
	}
	return render.ProfileText(p), nil
}

func (s *Service) Leaderboard() string {
	return render.LeaderboardText(s.Ledger.Leaderboard(5))
}

// ForcePost opens today's rounds immediately. Owner only.
func (s *Service) ForcePost(ctx context.Context, guildID, callerID string) (string, error) {
	if callerID != s.OwnerID {
		return "", models.ErrUnauthorized
	}
	if err := s.Scheduler.ForcePost(ctx, guildID); err != nil {
		return "", err
	}
	return "Rounds posted.", nil
}

// ResetPoints puts a player back on the starting balance. Owner only.
func (s *Service) ResetPoints(callerID, targetID string) (string, error) {
	if callerID != s.OwnerID {
		return "", models.ErrUnauthorized
	}
	if err := s.Ledger.ResetPoints(targetID); err != nil {
		return "", err
	}
	return "Points reset.", nil
}

// SetChannel routes round announcements to the invoking channel.
func (s *Service) SetChannel(ctx context.Context, guildID, channelID, channelName string) string {
	s.Guilds.SetChannel(ctx, guildID, channelID)
	return fmt.Sprintf("Channel set to %s for this server.", channelName)
}

// SetAlertChannel routes settlement summaries separately.
func (s *Service) SetAlertChannel(ctx context.Context, guildID, channelID, channelName string) string {
	s.Guilds.SetAlertChannel(ctx, guildID, channelID)
	return fmt.Sprintf("Alert channel set to %s for this server.", channelName)
}

// SetTimezone sets the guild's schedule timezone.
func (s *Service) SetTimezone(ctx context.Context, guildID, tz string) (string, error) {
	if _, err := time.LoadLocation(tz); err != nil {
		return "", fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	s.Guilds.SetTimezone(ctx, guildID, tz)
	return fmt.Sprintf("Timezone set to %s for this server.", tz), nil
}
