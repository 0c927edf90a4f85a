package game

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wab3io/MarketMover/internal/ledger"
	"github.com/wab3io/MarketMover/internal/models"
)

func upOutcome() models.Outcome {
	return models.Outcome{
		Direction: models.DirectionUp,
		OldPrice:  decimal.NewFromInt(30000),
		NewPrice:  decimal.NewFromInt(31000),
	}
}

func newTestSettler(t *testing.T) (*Settler, *Table, *ledger.Ledger) {
	t.Helper()
	bank := ledger.New(stubStore{}, nil, 0)
	table := NewTable(bank, nil, 0)
	return &Settler{Table: table, Ledger: bank, BaseReward: 10}, table, bank
}

func openLockedRound(t *testing.T, table *Table, bank *ledger.Ledger, stake int64, dir models.Direction) {
	t.Helper()
	bank.GetOrCreate("u1", "alice")
	if _, err := table.OpenRound("g1", models.CategoryCrypto, testAsset()); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}
	if stake > 0 {
		if _, err := table.PlaceWager("g1", "u1", models.CategoryCrypto, dir, stake); err != nil {
			t.Fatalf("PlaceWager: %v", err)
		}
	} else {
		if err := table.PlaceFreePrediction("g1", "u1", models.CategoryCrypto, dir); err != nil {
			t.Fatalf("PlaceFreePrediction: %v", err)
		}
	}
	if err := table.LockRound("g1", models.CategoryCrypto); err != nil {
		t.Fatalf("LockRound: %v", err)
	}
}

func TestSettle_CorrectWagerPays(t *testing.T) {
	s, table, bank := newTestSettler(t)
	openLockedRound(t, table, bank, 30, models.DirectionUp)

	rep, err := s.Settle("g1", models.CategoryCrypto, upOutcome(), 1)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	// 100 - 30 at placement, + (30 + 10) at settlement.
	p, _ := bank.Get("u1")
	if p.Points != 110 {
		t.Fatalf("balance=%d want=110", p.Points)
	}
	if len(rep.Lines) != 1 {
		t.Fatalf("lines=%d want=1", len(rep.Lines))
	}
	line := rep.Lines[0]
	if !line.Correct || line.Payout != 40 || line.NewBalance != 110 {
		t.Fatalf("line=%+v", line)
	}
	if len(p.History) != 1 || p.History[0].PointsDelta != 10 || !p.History[0].Correct {
		t.Fatalf("history=%+v", p.History)
	}
}

func TestSettle_WrongWagerForfeitsStake(t *testing.T) {
	s, table, bank := newTestSettler(t)
	openLockedRound(t, table, bank, 30, models.DirectionDown)

	rep, err := s.Settle("g1", models.CategoryCrypto, upOutcome(), 1)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	p, _ := bank.Get("u1")
	if p.Points != 70 {
		t.Fatalf("balance=%d want=70", p.Points)
	}
	line := rep.Lines[0]
	if line.Correct || line.Payout != 0 {
		t.Fatalf("line=%+v", line)
	}
	if p.History[0].PointsDelta != -30 {
		t.Fatalf("delta=%d want=-30", p.History[0].PointsDelta)
	}
}

func TestSettle_DoubleDayMultiplier(t *testing.T) {
	s, table, bank := newTestSettler(t)
	openLockedRound(t, table, bank, 20, models.DirectionUp)

	rep, err := s.Settle("g1", models.CategoryCrypto, upOutcome(), 2)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	// Payout doubles stake and base: (20 + 10) * 2 = 60.
	if rep.Lines[0].Payout != 60 {
		t.Fatalf("payout=%d want=60", rep.Lines[0].Payout)
	}
	p, _ := bank.Get("u1")
	if p.Points != 140 {
		t.Fatalf("balance=%d want=140", p.Points)
	}
}

func TestSettle_FreePredictionPaysBaseOnly(t *testing.T) {
	s, table, bank := newTestSettler(t)
	openLockedRound(t, table, bank, 0, models.DirectionUp)

	rep, err := s.Settle("g1", models.CategoryCrypto, upOutcome(), 1)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if rep.Lines[0].Payout != 10 {
		t.Fatalf("payout=%d want=10", rep.Lines[0].Payout)
	}
	p, _ := bank.Get("u1")
	if p.Points != 110 {
		t.Fatalf("balance=%d want=110", p.Points)
	}
}

func TestSettle_Idempotent(t *testing.T) {
	s, table, bank := newTestSettler(t)
	openLockedRound(t, table, bank, 30, models.DirectionUp)

	if _, err := s.Settle("g1", models.CategoryCrypto, upOutcome(), 1); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	p, _ := bank.Get("u1")
	before := p.Points

	if _, err := s.Settle("g1", models.CategoryCrypto, upOutcome(), 1); !errors.Is(err, models.ErrRoundNotSettleable) {
		t.Fatalf("err=%v want ErrRoundNotSettleable", err)
	}
	p, _ = bank.Get("u1")
	if p.Points != before {
		t.Fatalf("second settle changed balance: %d -> %d", before, p.Points)
	}
}

func TestSettle_RequiresLockedRound(t *testing.T) {
	s, table, bank := newTestSettler(t)
	bank.GetOrCreate("u1", "alice")
	if _, err := table.OpenRound("g1", models.CategoryCrypto, testAsset()); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}
	if _, err := s.Settle("g1", models.CategoryCrypto, upOutcome(), 1); !errors.Is(err, models.ErrRoundNotSettleable) {
		t.Fatalf("err=%v want ErrRoundNotSettleable", err)
	}
}

func TestSettle_StaleWagerNotHonored(t *testing.T) {
	s, table, bank := newTestSettler(t)
	bank.GetOrCreate("u1", "alice")
	bank.GetOrCreate("u2", "bob")

	opened := time.Date(2024, 3, 4, 6, 30, 0, 0, time.UTC)
	now := opened
	table.now = func() time.Time { return now }

	if _, err := table.OpenRound("g1", models.CategoryCrypto, testAsset()); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}
	if _, err := table.PlaceWager("g1", "u1", models.CategoryCrypto, models.DirectionUp, 30); err != nil {
		t.Fatalf("PlaceWager u1: %v", err)
	}

	// u2 bets after the accept window closes.
	now = opened.Add(table.AcceptWindow + time.Minute)
	if _, err := table.PlaceWager("g1", "u2", models.CategoryCrypto, models.DirectionUp, 30); err != nil {
		t.Fatalf("PlaceWager u2: %v", err)
	}
	if err := table.LockRound("g1", models.CategoryCrypto); err != nil {
		t.Fatalf("LockRound: %v", err)
	}

	rep, err := s.Settle("g1", models.CategoryCrypto, upOutcome(), 1)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if rep.Stale != 1 {
		t.Fatalf("stale=%d want=1", rep.Stale)
	}
	if len(rep.Lines) != 1 || rep.Lines[0].PlayerID != "u1" {
		t.Fatalf("lines=%+v want only u1", rep.Lines)
	}
	// The stale stake stays forfeited.
	p2, _ := bank.Get("u2")
	if p2.Points != 70 {
		t.Fatalf("u2 balance=%d want=70", p2.Points)
	}
}

func TestSettle_EmptyRound(t *testing.T) {
	s, table, _ := newTestSettler(t)
	if _, err := table.OpenRound("g1", models.CategoryCrypto, testAsset()); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}
	if err := table.LockRound("g1", models.CategoryCrypto); err != nil {
		t.Fatalf("LockRound: %v", err)
	}
	rep, err := s.Settle("g1", models.CategoryCrypto, upOutcome(), 1)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if len(rep.Lines) != 0 || rep.Stale != 0 {
		t.Fatalf("report=%+v want empty", rep)
	}
}
