package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wab3io/MarketMover/internal/game"
	"github.com/wab3io/MarketMover/internal/models"
)

func TestRoundDescription(t *testing.T) {
	r := models.Round{
		Category: models.CategoryCrypto,
		Asset:    models.Asset{Name: "Bitcoin", Symbol: "BTC", Price: decimal.NewFromInt(30000)},
	}
	out := RoundDescription(r, "14:00")
	for _, want := range []string{"Crypto", "Bitcoin", "BTC", "30000", "14:00", "!bet"} {
		if !strings.Contains(out, want) {
			t.Fatalf("description missing %q:\n%s", want, out)
		}
	}

	r.Asset.Fallback = true
	if !strings.Contains(RoundDescription(r, "14:00"), "fallback") {
		t.Fatal("fallback quote not flagged")
	}
}

func TestResultSummary(t *testing.T) {
	rep := &game.SettlementReport{
		Round: models.Round{
			Category: models.CategoryStock,
			Asset:    models.Asset{Name: "AAPL", Symbol: "AAPL", Price: decimal.NewFromInt(200)},
		},
		Outcome: models.Outcome{
			Direction: models.DirectionUp,
			OldPrice:  decimal.NewFromInt(200),
			NewPrice:  decimal.NewFromInt(210),
		},
		Multiplier: 2,
		Lines: []game.SettlementLine{
			{DisplayName: "alice", Correct: true, Payout: 60, NewBalance: 140},
			{DisplayName: "bob", Correct: false, NewBalance: 70},
		},
		Stale: 1,
	}
	out := ResultSummary(rep)
	for _, want := range []string{"Stocks", "up", "alice", "+60", "bob", "Double points", "accept window"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestResultSummary_NoBets(t *testing.T) {
	rep := &game.SettlementReport{
		Round: models.Round{
			Category: models.CategoryForex,
			Asset:    models.Asset{Name: "EUR/USD", Symbol: "EUR/USD", Price: decimal.NewFromFloat(1.1)},
		},
		Outcome: models.Outcome{
			Direction: models.DirectionDown,
			OldPrice:  decimal.NewFromFloat(1.1),
			NewPrice:  decimal.NewFromFloat(1.05),
			Simulated: true,
		},
		Multiplier: 1,
	}
	out := ResultSummary(rep)
	if !strings.Contains(out, "No bets placed.") {
		t.Fatalf("summary=%q", out)
	}
	if !strings.Contains(out, "simulated") {
		t.Fatal("simulated outcome not flagged")
	}
}

func TestErrorMessage_SentinelMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{models.ErrInsufficientFunds, "insufficient"},
		{models.ErrDuplicateWager, "already placed"},
		{models.ErrRoundNotOpen, "No active predictions"},
		{models.ErrAlreadyClaimed, "daily bonus"},
		{models.ErrInvalidCategory, "crypto"},
		{errors.New("boom"), "Something went wrong"},
	}
	for _, c := range cases {
		if got := ErrorMessage(c.err); !strings.Contains(got, c.want) {
			t.Fatalf("ErrorMessage(%v)=%q want contains %q", c.err, got, c.want)
		}
	}
}
