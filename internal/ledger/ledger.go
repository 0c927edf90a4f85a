package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wab3io/MarketMover/internal/models"
	"github.com/wab3io/MarketMover/internal/store"
)

// DefaultDailyBonus is credited by ClaimDaily unless configured otherwise.
const DefaultDailyBonus int64 = 50

const maxHistoryPerPlayer = 200

// Ledger owns the player → balance mapping. All mutation goes through
// its methods; balances never go negative. Persistence is
// fire-and-forget: mutations mark the ledger dirty and a single
// flusher goroutine writes snapshots, so a write always reflects a
// state at least as new as the mutation that triggered it.
type Ledger struct {
	mu      sync.RWMutex
	players map[string]*models.Player

	store      store.Store
	logger     *zap.Logger
	dailyBonus int64

	dirty chan struct{}

	// flushMu serializes snapshot+save so an earlier snapshot can never
	// commit after a later one.
	flushMu sync.Mutex
}

func New(st store.Store, logger *zap.Logger, dailyBonus int64) *Ledger {
	if dailyBonus <= 0 {
		dailyBonus = DefaultDailyBonus
	}
	return &Ledger{
		players:    map[string]*models.Player{},
		store:      st,
		logger:     logger,
		dailyBonus: dailyBonus,
		dirty:      make(chan struct{}, 1),
	}
}

// Load replaces in-memory state with the persisted snapshot. Malformed
// persisted data loads as empty state (the store guarantees that).
func (l *Ledger) Load(ctx context.Context) error {
	players, err := l.store.LoadLedger(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.players = players
	l.mu.Unlock()
	return nil
}

// GetOrCreate returns a copy of the player, creating the record with
// the default balance on first interaction. A changed display name is
// persisted like any other mutation.
func (l *Ledger) GetOrCreate(id, displayName string) models.Player {
	l.mu.Lock()
	changed := false
	p, ok := l.players[id]
	if !ok {
		if displayName == "" {
			displayName = id
		}
		p = models.NewPlayer(id, displayName)
		l.players[id] = p
		changed = true
	} else if displayName != "" && p.DisplayName != displayName {
		p.DisplayName = displayName
		changed = true
	}
	out := *p.Clone()
	l.mu.Unlock()
	if changed {
		l.markDirty()
	}
	return out
}

// Get returns a copy of the player if it exists.
func (l *Ledger) Get(id string) (models.Player, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.players[id]
	if !ok {
		return models.Player{}, false
	}
	return *p.Clone(), true
}

// Debit removes amount from the player's balance. The balance check
// and the subtraction are one critical section, so two concurrent
// debits cannot both pass the check.
func (l *Ledger) Debit(id string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, models.ErrInvalidAmount
	}
	l.mu.Lock()
	p, ok := l.players[id]
	if !ok {
		l.mu.Unlock()
		return 0, models.ErrUnknownPlayer
	}
	if amount > p.Points {
		balance := p.Points
		l.mu.Unlock()
		return balance, models.ErrInsufficientFunds
	}
	p.Points -= amount
	balance := p.Points
	l.mu.Unlock()
	l.markDirty()
	return balance, nil
}

// Credit adds amount (which may be 0) to the player's balance.
func (l *Ledger) Credit(id string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, models.ErrInvalidAmount
	}
	l.mu.Lock()
	p, ok := l.players[id]
	if !ok {
		l.mu.Unlock()
		return 0, models.ErrUnknownPlayer
	}
	p.Points += amount
	balance := p.Points
	l.mu.Unlock()
	l.markDirty()
	return balance, nil
}

// Transfer moves amount between players as one unit; no partial
// transfer is ever observable.
func (l *Ledger) Transfer(fromID, toID string, amount int64) error {
	if amount <= 0 {
		return models.ErrInvalidAmount
	}
	if fromID == toID {
		return models.ErrInvalidAmount
	}
	l.mu.Lock()
	from, ok := l.players[fromID]
	if !ok {
		l.mu.Unlock()
		return models.ErrUnknownPlayer
	}
	to, ok := l.players[toID]
	if !ok {
		l.mu.Unlock()
		return models.ErrUnknownPlayer
	}
	if amount > from.Points {
		l.mu.Unlock()
		return models.ErrInsufficientFunds
	}
	from.Points -= amount
	to.Points += amount
	l.mu.Unlock()
	l.markDirty()
	return nil
}

// ClaimDaily credits the daily bonus if more than 24h have passed
// since the previous claim.
func (l *Ledger) ClaimDaily(id string, now time.Time) (int64, error) {
	l.mu.Lock()
	p, ok := l.players[id]
	if !ok {
		l.mu.Unlock()
		return 0, models.ErrUnknownPlayer
	}
	if !p.LastDailyClaim.IsZero() && now.Sub(p.LastDailyClaim) <= 24*time.Hour {
		balance := p.Points
		l.mu.Unlock()
		return balance, models.ErrAlreadyClaimed
	}
	p.Points += l.dailyBonus
	p.LastDailyClaim = now
	balance := p.Points
	l.mu.Unlock()
	l.markDirty()
	return balance, nil
}

// AppendHistory records a settled wager. History is capped so a
// long-lived player record stays bounded.
func (l *Ledger) AppendHistory(id string, rec models.SettledWagerRecord) {
	l.mu.Lock()
	p, ok := l.players[id]
	if ok {
		p.History = append(p.History, rec)
		if len(p.History) > maxHistoryPerPlayer {
			p.History = p.History[len(p.History)-maxHistoryPerPlayer:]
		}
	}
	l.mu.Unlock()
	if ok {
		l.markDirty()
	}
}

// SetSubscription toggles a category subscription on or off.
func (l *Ledger) SetSubscription(id string, c models.Category, on bool) {
	l.mu.Lock()
	p, ok := l.players[id]
	if ok {
		subs := p.Subscriptions[:0]
		for _, s := range p.Subscriptions {
			if s != c {
				subs = append(subs, s)
			}
		}
		if on {
			subs = append(subs, c)
		}
		p.Subscriptions = subs
	}
	l.mu.Unlock()
	if ok {
		l.markDirty()
	}
}

// Subscribers returns the IDs of players subscribed to a category.
func (l *Ledger) Subscribers(c models.Category) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []string
	for id, p := range l.players {
		if p.Subscribed(c) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// ResetPoints puts a player back on the default starting balance.
func (l *Ledger) ResetPoints(id string) error {
	l.mu.Lock()
	p, ok := l.players[id]
	if !ok {
		l.mu.Unlock()
		return models.ErrUnknownPlayer
	}
	p.Points = models.DefaultStartingPoints
	l.mu.Unlock()
	l.markDirty()
	return nil
}

// Leaderboard returns up to n players ordered by balance descending.
func (l *Ledger) Leaderboard(n int) []models.Player {
	l.mu.RLock()
	out := make([]models.Player, 0, len(l.players))
	for _, p := range l.players {
		out = append(out, *p.Clone())
	}
	l.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (l *Ledger) snapshot() map[string]*models.Player {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]*models.Player, len(l.players))
	for id, p := range l.players {
		out[id] = p.Clone()
	}
	return out
}

func (l *Ledger) markDirty() {
	select {
	case l.dirty <- struct{}{}:
	default:
	}
}

// Run flushes dirty snapshots until ctx is cancelled, then writes a
// final snapshot so shutdown never loses pending mutations.
func (l *Ledger) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Flush(context.Background())
			return ctx.Err()
		case <-l.dirty:
			l.Flush(ctx)
		}
	}
}

// Flush writes the current snapshot. Callers may overlap (flusher
// goroutine, periodic safety flush, shutdown); the flush mutex keeps
// the snapshot and its save one unit so writes commit in snapshot
// order. Failures are logged and retried on the next mutation; they
// never crash the process.
func (l *Ledger) Flush(ctx context.Context) {
	l.flushMu.Lock()
	defer l.flushMu.Unlock()
	if err := l.store.SaveLedger(ctx, l.snapshot()); err != nil && l.logger != nil {
		l.logger.Warn("ledger save failed", zap.Error(err))
	}
}
