// Package render produces the plain-text payloads the chat adapter
// posts. No platform markup lives here.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wab3io/MarketMover/internal/game"
	"github.com/wab3io/MarketMover/internal/models"
)

func categoryTitle(c models.Category) string {
	switch c {
	case models.CategoryCrypto:
		return "Crypto"
	case models.CategoryStock:
		return "Stocks"
	case models.CategoryForex:
		return "FOREX"
	default:
		return string(c)
	}
}

// RoundDescription announces one newly opened round.
func RoundDescription(r models.Round, settleAt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily %s Prediction\n", categoryTitle(r.Category))
	fmt.Fprintf(&b, "Will %s (%s) go up or down by %s?\n", r.Asset.Name, r.Asset.Symbol, settleAt)
	fmt.Fprintf(&b, "Reference price: %s", r.Asset.Price.String())
	if r.Asset.Fallback {
		b.WriteString(" (fallback quote)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "React 📈 or 📉 to predict for free and win %d points. ", game.DefaultBaseReward)
	fmt.Fprintf(&b, "Use !bet <points> <up/down> %s to wager, or !leverage <points> %s to raise your bet.",
		r.Category, r.Category)
	return b.String()
}

// ResultSummary renders one settled round with per-player lines.
func ResultSummary(rep *game.SettlementReport) string {
	var b strings.Builder
	r := rep.Round
	fmt.Fprintf(&b, "Results for %s\n", categoryTitle(r.Category))
	fmt.Fprintf(&b, "%s went %s! Old price: %s, new price: %s",
		r.Asset.Name, rep.Outcome.Direction, rep.Outcome.OldPrice.String(), rep.Outcome.NewPrice.String())
	if rep.Outcome.Simulated {
		b.WriteString(" (simulated)")
	}
	if rep.Multiplier > 1 {
		fmt.Fprintf(&b, "\nDouble points day! All payouts x%d.", rep.Multiplier)
	}
	b.WriteString("\n")
	if len(rep.Lines) == 0 {
		b.WriteString("No bets placed.")
		return b.String()
	}
	for _, line := range rep.Lines {
		if line.Correct {
			fmt.Fprintf(&b, "%s: +%d points (balance %d)\n", line.DisplayName, line.Payout, line.NewBalance)
		} else {
			fmt.Fprintf(&b, "%s: 0 points (balance %d)\n", line.DisplayName, line.NewBalance)
		}
	}
	if rep.Stale > 0 {
		fmt.Fprintf(&b, "%d wager(s) missed the accept window and were not honored.\n", rep.Stale)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ProfileText renders a player's balance, recent history, and
// subscriptions.
func ProfileText(p models.Player) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s — %d points", p.DisplayName, p.Points)
	if len(p.Subscriptions) > 0 {
		subs := make([]string, 0, len(p.Subscriptions))
		for _, s := range p.Subscriptions {
			subs = append(subs, string(s))
		}
		fmt.Fprintf(&b, "\nSubscribed: %s", strings.Join(subs, ", "))
	}
	n := len(p.History)
	if n == 0 {
		return b.String()
	}
	b.WriteString("\nRecent rounds:")
	start := n - 5
	if start < 0 {
		start = 0
	}
	for _, rec := range p.History[start:] {
		mark := "✗"
		if rec.Correct {
			mark = "✓"
		}
		fmt.Fprintf(&b, "\n%s %s %s: %+d", mark, rec.Category, rec.Direction, rec.PointsDelta)
	}
	return b.String()
}

// LeaderboardText renders the top players.
func LeaderboardText(players []models.Player) string {
	if len(players) == 0 {
		return "Leaderboard\nNo players yet!"
	}
	var b strings.Builder
	b.WriteString("Leaderboard")
	for i, p := range players {
		fmt.Fprintf(&b, "\n%d. %s — %d points", i+1, p.DisplayName, p.Points)
	}
	return b.String()
}

// ErrorMessage maps domain errors to user-facing rejection text.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrInsufficientFunds):
		return "Invalid bet amount or insufficient points."
	case errors.Is(err, models.ErrDuplicateWager):
		return "You've already placed a prediction for this category today."
	case errors.Is(err, models.ErrRoundNotOpen):
		return "No active predictions. Please wait for the daily post."
	case errors.Is(err, models.ErrRoundAlreadyOpen):
		return "Rounds are already open."
	case errors.Is(err, models.ErrNoExistingWager):
		return "No active bet to leverage for this category."
	case errors.Is(err, models.ErrAlreadyClaimed):
		return "You already claimed your daily bonus. Come back later."
	case errors.Is(err, models.ErrInvalidCategory):
		return "Category must be 'crypto', 'stock', or 'forex'."
	case errors.Is(err, models.ErrInvalidDirection):
		return "Direction must be 'up' or 'down'."
	case errors.Is(err, models.ErrInvalidAmount):
		return "Invalid point amount."
	case errors.Is(err, models.ErrUnauthorized):
		return "You are not allowed to do that."
	case errors.Is(err, models.ErrUnknownPlayer):
		return "That player hasn't joined the game yet."
	default:
		return "Something went wrong, try again."
	}
}
