package game

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wab3io/MarketMover/internal/ledger"
	"github.com/wab3io/MarketMover/internal/models"
)

// DefaultAcceptWindow bounds how long after open a wager is still
// honored at settlement (6:30 AM open to the 2:00 PM cutoff).
const DefaultAcceptWindow = 7*time.Hour + 30*time.Minute

type roundKey struct {
	guildID  string
	category models.Category
}

// Table owns the open rounds and their wagers. One mutex guards both:
// wager placement debits the ledger inside the critical section, so a
// concurrent duplicate attempt can never pass the checks twice, and
// settlement holds the same mutex end to end.
type Table struct {
	mu     sync.Mutex
	rounds map[roundKey]*models.Round
	wagers map[roundKey]map[string]*models.Wager

	Ledger       *ledger.Ledger
	Logger       *zap.Logger
	AcceptWindow time.Duration

	now func() time.Time
}

func NewTable(l *ledger.Ledger, logger *zap.Logger, acceptWindow time.Duration) *Table {
	if acceptWindow <= 0 {
		acceptWindow = DefaultAcceptWindow
	}
	return &Table{
		rounds:       map[roundKey]*models.Round{},
		wagers:       map[roundKey]map[string]*models.Wager{},
		Ledger:       l,
		Logger:       logger,
		AcceptWindow: acceptWindow,
		now:          time.Now,
	}
}

// OpenRound creates the single open round for (guild, category).
func (t *Table) OpenRound(guildID string, category models.Category, asset models.Asset) (models.Round, error) {
	key := roundKey{guildID, category}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.rounds[key]; exists {
		return models.Round{}, models.ErrRoundAlreadyOpen
	}
	r := &models.Round{
		ID:       uuid.New().String(),
		GuildID:  guildID,
		Category: category,
		Asset:    asset,
		OpenedAt: t.now(),
		Status:   models.RoundOpen,
	}
	t.rounds[key] = r
	t.wagers[key] = map[string]*models.Wager{}
	return *r, nil
}

// LockRound stops the round from accepting wagers. Status only ever
// advances; locking a locked round is a no-op.
func (t *Table) LockRound(guildID string, category models.Category) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rounds[roundKey{guildID, category}]
	if !ok {
		return models.ErrRoundNotOpen
	}
	if r.Status == models.RoundOpen {
		r.Status = models.RoundLocked
	}
	return nil
}

// CurrentRound returns a copy of the active round, if any.
func (t *Table) CurrentRound(guildID string, category models.Category) (models.Round, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rounds[roundKey{guildID, category}]
	if !ok {
		return models.Round{}, false
	}
	return *r, true
}

// OpenRounds returns copies of every active round for a guild, in
// category order.
func (t *Table) OpenRounds(guildID string) []models.Round {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []models.Round
	for _, c := range models.Categories() {
		if r, ok := t.rounds[roundKey{guildID, c}]; ok {
			out = append(out, *r)
		}
	}
	return out
}

// PlaceFreePrediction records a zero-stake wager (reaction or !predict;
// both land here).
func (t *Table) PlaceFreePrediction(guildID, playerID string, category models.Category, direction models.Direction) error {
	_, err := t.place(guildID, playerID, category, direction, 0)
	return err
}

// PlaceWager records a staked wager and debits the stake atomically
// with the insertion: either both happen or neither.
func (t *Table) PlaceWager(guildID, playerID string, category models.Category, direction models.Direction, stake int64) (int64, error) {
	if stake <= 0 {
		return 0, models.ErrInvalidAmount
	}
	return t.place(guildID, playerID, category, direction, stake)
}

func (t *Table) place(guildID, playerID string, category models.Category, direction models.Direction, stake int64) (int64, error) {
	key := roundKey{guildID, category}
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rounds[key]
	if !ok || r.Status != models.RoundOpen {
		return 0, models.ErrRoundNotOpen
	}
	if _, exists := t.wagers[key][playerID]; exists {
		return 0, models.ErrDuplicateWager
	}
	var balance int64
	if stake > 0 {
		var err error
		balance, err = t.Ledger.Debit(playerID, stake)
		if err != nil {
			return balance, err
		}
	}
	t.wagers[key][playerID] = &models.Wager{
		PlayerID:  playerID,
		Category:  category,
		Stake:     stake,
		Direction: direction,
		PlacedAt:  t.now(),
	}
	return balance, nil
}

// IncreaseWager debits additionalStake and adds it to the existing
// wager's stake. It never creates a second wager entry.
func (t *Table) IncreaseWager(guildID, playerID string, category models.Category, additionalStake int64) (total int64, balance int64, err error) {
	if additionalStake <= 0 {
		return 0, 0, models.ErrInvalidAmount
	}
	key := roundKey{guildID, category}
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rounds[key]
	if !ok || r.Status != models.RoundOpen {
		return 0, 0, models.ErrRoundNotOpen
	}
	w, exists := t.wagers[key][playerID]
	if !exists {
		return 0, 0, models.ErrNoExistingWager
	}
	balance, err = t.Ledger.Debit(playerID, additionalStake)
	if err != nil {
		return w.Stake, balance, err
	}
	w.Stake += additionalStake
	return w.Stake, balance, nil
}

// WagerFor returns a copy of the player's wager on the active round.
func (t *Table) WagerFor(guildID, playerID string, category models.Category) (models.Wager, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.wagers[roundKey{guildID, category}][playerID]
	if !ok {
		return models.Wager{}, false
	}
	return *w, true
}

func (t *Table) sortedWagers(key roundKey) []*models.Wager {
	out := make([]*models.Wager, 0, len(t.wagers[key]))
	for _, w := range t.wagers[key] {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}
