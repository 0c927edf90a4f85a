package prices

import (
	"context"

	"github.com/wab3io/MarketMover/internal/models"
)

// Provider supplies the reference asset a round opens against and the
// resolved outcome it settles against. Implementations degrade to
// clearly-flagged fallback or simulated values on failure; a provider
// can never fail a round.
type Provider interface {
	FetchAsset(ctx context.Context, category models.Category) models.Asset
	ResolveOutcome(ctx context.Context, round models.Round) models.Outcome
}
