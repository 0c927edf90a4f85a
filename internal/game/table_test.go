package game

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wab3io/MarketMover/internal/ledger"
	"github.com/wab3io/MarketMover/internal/models"
)

func testAsset() models.Asset {
	return models.Asset{Name: "Bitcoin", Symbol: "BTC", Price: decimal.NewFromInt(30000)}
}

func newTestTable(t *testing.T) (*Table, *ledger.Ledger) {
	t.Helper()
	bank := ledger.New(stubStore{}, nil, 0)
	return NewTable(bank, nil, 0), bank
}

func TestOpenRound_OnePerGuildCategory(t *testing.T) {
	table, _ := newTestTable(t)
	if _, err := table.OpenRound("g1", models.CategoryCrypto, testAsset()); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}
	if _, err := table.OpenRound("g1", models.CategoryCrypto, testAsset()); !errors.Is(err, models.ErrRoundAlreadyOpen) {
		t.Fatalf("err=%v want ErrRoundAlreadyOpen", err)
	}
	// Another guild or category is independent.
	if _, err := table.OpenRound("g1", models.CategoryStock, testAsset()); err != nil {
		t.Fatalf("OpenRound stock: %v", err)
	}
	if _, err := table.OpenRound("g2", models.CategoryCrypto, testAsset()); err != nil {
		t.Fatalf("OpenRound g2: %v", err)
	}
}

func TestPlaceWager_DebitsStake(t *testing.T) {
	table, bank := newTestTable(t)
	bank.GetOrCreate("u1", "alice")
	if _, err := table.OpenRound("g1", models.CategoryCrypto, testAsset()); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}
	balance, err := table.PlaceWager("g1", "u1", models.CategoryCrypto, models.DirectionUp, 30)
	if err != nil {
		t.Fatalf("PlaceWager: %v", err)
	}
	if balance != 70 {
		t.Fatalf("balance=%d want=70", balance)
	}
	w, ok := table.WagerFor("g1", "u1", models.CategoryCrypto)
	if !ok || w.Stake != 30 || w.Direction != models.DirectionUp {
		t.Fatalf("wager=%+v", w)
	}
}

func TestPlaceWager_NoOpenRound(t *testing.T) {
	table, bank := newTestTable(t)
	bank.GetOrCreate("u1", "alice")
	if _, err := table.PlaceWager("g1", "u1", models.CategoryCrypto, models.DirectionUp, 10); !errors.Is(err, models.ErrRoundNotOpen) {
		t.Fatalf("err=%v want ErrRoundNotOpen", err)
	}
	p, _ := bank.Get("u1")
	if p.Points != 100 {
		t.Fatalf("rejected wager changed balance: %d", p.Points)
	}
}

func TestPlaceWager_DuplicateRejected(t *testing.T) {
	table, bank := newTestTable(t)
	bank.GetOrCreate("u1", "alice")
	if _, err := table.OpenRound("g1", models.CategoryCrypto, testAsset()); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}
	if _, err := table.PlaceWager("g1", "u1", models.CategoryCrypto, models.DirectionUp, 30); err != nil {
		t.Fatalf("first wager: %v", err)
	}
	if _, err := table.PlaceWager("g1", "u1", models.CategoryCrypto, models.DirectionDown, 10); !errors.Is(err, models.ErrDuplicateWager) {
		t.Fatalf("err=%v want ErrDuplicateWager", err)
	}
	p, _ := bank.Get("u1")
	if p.Points != 70 {
		t.Fatalf("duplicate attempt changed balance: %d", p.Points)
	}
}

func TestPlaceWager_InsufficientFundsLeavesNoWager(t *testing.T) {
	table, bank := newTestTable(t)
	bank.GetOrCreate("u1", "alice")
	if _, err := table.OpenRound("g1", models.CategoryCrypto, testAsset()); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}
	if _, err := table.PlaceWager("g1", "u1", models.CategoryCrypto, models.DirectionUp, 101); !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("err=%v want ErrInsufficientFunds", err)
	}
	if _, ok := table.WagerFor("g1", "u1", models.CategoryCrypto); ok {
		t.Fatal("failed wager left an entry behind")
	}
}

func TestPlaceWager_ConcurrentOverspend(t *testing.T) {
	table, bank := newTestTable(t)
	bank.GetOrCreate("u1", "alice")
	if _, err := table.OpenRound("g1", models.CategoryCrypto, testAsset()); err != nil {
		t.Fatalf("OpenRound crypto: %v", err)
	}
	if _, err := table.OpenRound("g1", models.CategoryStock, testAsset()); err != nil {
		t.Fatalf("OpenRound stock: %v", err)
	}

	// Two 80-point wagers on different categories against a 100-point
	// balance: exactly one can be accepted.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	cats := []models.Category{models.CategoryCrypto, models.CategoryStock}
	for i, c := range cats {
		wg.Add(1)
		go func(i int, c models.Category) {
			defer wg.Done()
			_, errs[i] = table.PlaceWager("g1", "u1", c, models.DirectionUp, 80)
		}(i, c)
	}
	wg.Wait()

	var ok, failed int
	for _, err := range errs {
		if err == nil {
			ok++
		} else if errors.Is(err, models.ErrInsufficientFunds) {
			failed++
		} else {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if ok != 1 || failed != 1 {
		t.Fatalf("ok=%d failed=%d want 1/1", ok, failed)
	}
	p, _ := bank.Get("u1")
	if p.Points != 20 {
		t.Fatalf("balance=%d want=20", p.Points)
	}
}

func TestPlaceWager_ConcurrentSameRound(t *testing.T) {
	table, bank := newTestTable(t)
	bank.GetOrCreate("u1", "alice")
	if _, err := table.OpenRound("g1", models.CategoryCrypto, testAsset()); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}

	// Two 80-point wagers racing on the same round: the one-wager-per-
	// round check fires before the balance check, so exactly one is
	// accepted and the other is a duplicate.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = table.PlaceWager("g1", "u1", models.CategoryCrypto, models.DirectionUp, 80)
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		if err == nil {
			ok++
		} else if errors.Is(err, models.ErrDuplicateWager) {
			dup++
		} else {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if ok != 1 || dup != 1 {
		t.Fatalf("ok=%d dup=%d want 1/1", ok, dup)
	}
	p, _ := bank.Get("u1")
	if p.Points != 20 {
		t.Fatalf("balance=%d want=20", p.Points)
	}
	w, _ := table.WagerFor("g1", "u1", models.CategoryCrypto)
	if w.Stake != 80 {
		t.Fatalf("stake=%d want=80, rejected attempt must not touch the wager", w.Stake)
	}
}

func TestIncreaseWager_SumsStake(t *testing.T) {
	table, bank := newTestTable(t)
	bank.GetOrCreate("u1", "alice")
	if _, err := table.OpenRound("g1", models.CategoryCrypto, testAsset()); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}
	if _, err := table.PlaceWager("g1", "u1", models.CategoryCrypto, models.DirectionUp, 30); err != nil {
		t.Fatalf("PlaceWager: %v", err)
	}
	total, balance, err := table.IncreaseWager("g1", "u1", models.CategoryCrypto, 20)
	if err != nil {
		t.Fatalf("IncreaseWager: %v", err)
	}
	if total != 50 || balance != 50 {
		t.Fatalf("total=%d balance=%d want 50/50", total, balance)
	}
	w, _ := table.WagerFor("g1", "u1", models.CategoryCrypto)
	if w.Stake != 50 {
		t.Fatalf("stake=%d want=50", w.Stake)
	}
}

func TestIncreaseWager_RequiresExistingWager(t *testing.T) {
	table, bank := newTestTable(t)
	bank.GetOrCreate("u1", "alice")
	if _, err := table.OpenRound("g1", models.CategoryCrypto, testAsset()); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}
	if _, _, err := table.IncreaseWager("g1", "u1", models.CategoryCrypto, 20); !errors.Is(err, models.ErrNoExistingWager) {
		t.Fatalf("err=%v want ErrNoExistingWager", err)
	}
}

func TestLockRound_RejectsNewWagers(t *testing.T) {
	table, bank := newTestTable(t)
	bank.GetOrCreate("u1", "alice")
	if _, err := table.OpenRound("g1", models.CategoryCrypto, testAsset()); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}
	if err := table.LockRound("g1", models.CategoryCrypto); err != nil {
		t.Fatalf("LockRound: %v", err)
	}
	if _, err := table.PlaceWager("g1", "u1", models.CategoryCrypto, models.DirectionUp, 10); !errors.Is(err, models.ErrRoundNotOpen) {
		t.Fatalf("err=%v want ErrRoundNotOpen", err)
	}
	// Locking again is a no-op.
	if err := table.LockRound("g1", models.CategoryCrypto); err != nil {
		t.Fatalf("second LockRound: %v", err)
	}
}

func TestPlaceFreePrediction_ZeroStake(t *testing.T) {
	table, bank := newTestTable(t)
	bank.GetOrCreate("u1", "alice")
	if _, err := table.OpenRound("g1", models.CategoryForex, testAsset()); err != nil {
		t.Fatalf("OpenRound: %v", err)
	}
	if err := table.PlaceFreePrediction("g1", "u1", models.CategoryForex, models.DirectionDown); err != nil {
		t.Fatalf("PlaceFreePrediction: %v", err)
	}
	p, _ := bank.Get("u1")
	if p.Points != 100 {
		t.Fatalf("free prediction changed balance: %d", p.Points)
	}
	if err := table.PlaceFreePrediction("g1", "u1", models.CategoryForex, models.DirectionUp); !errors.Is(err, models.ErrDuplicateWager) {
		t.Fatalf("err=%v want ErrDuplicateWager", err)
	}
}

func TestOpenRounds_CategoryOrder(t *testing.T) {
	table, _ := newTestTable(t)
	for _, c := range []models.Category{models.CategoryForex, models.CategoryCrypto} {
		if _, err := table.OpenRound("g1", c, testAsset()); err != nil {
			t.Fatalf("OpenRound %s: %v", c, err)
		}
	}
	rounds := table.OpenRounds("g1")
	if len(rounds) != 2 {
		t.Fatalf("rounds=%d want=2", len(rounds))
	}
	if rounds[0].Category != models.CategoryCrypto || rounds[1].Category != models.CategoryForex {
		t.Fatalf("order=%v", []models.Category{rounds[0].Category, rounds[1].Category})
	}
}
