package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wab3io/MarketMover/internal/models"
)

const (
	defaultCoinGeckoURL = "https://api.coingecko.com"
	defaultTimeout      = 10 * time.Second
)

// Free APIs for stocks and forex are limited, so those categories are
// simulated from fixed pools, as is the crypto path when CoinGecko is
// unreachable.
var (
	stockPool = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA", "NVDA", "META", "JPM", "V", "WMT"}
	forexPool = []string{"EUR/USD", "USD/JPY", "GBP/USD", "AUD/USD", "CHF/USD", "CAD/USD", "NZD/USD", "EUR/JPY"}
)

// Service is the default Provider: CoinGecko for crypto, simulated
// pools for stock and forex.
type Service struct {
	HTTP         *http.Client
	Logger       *zap.Logger
	CoinGeckoURL string

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewService(logger *zap.Logger, baseURL string, timeout time.Duration) *Service {
	if baseURL == "" {
		baseURL = defaultCoinGeckoURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		HTTP:         &http.Client{Timeout: timeout},
		Logger:       logger,
		CoinGeckoURL: strings.TrimRight(baseURL, "/"),
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Service) FetchAsset(ctx context.Context, category models.Category) models.Asset {
	switch category {
	case models.CategoryCrypto:
		return s.fetchCrypto(ctx)
	case models.CategoryStock:
		sym := s.pick(stockPool)
		return models.Asset{
			Name:   sym,
			Symbol: sym,
			Price:  s.uniformDecimal(100, 1000, 2),
		}
	case models.CategoryForex:
		pair := s.pick(forexPool)
		return models.Asset{
			Name:   pair,
			Symbol: pair,
			Price:  s.uniformDecimal(0.8, 1.5, 4),
		}
	default:
		return fallbackCrypto()
	}
}

func (s *Service) fetchCrypto(ctx context.Context) models.Asset {
	coins, err := s.fetchTopCoins(ctx)
	if err != nil || len(coins) == 0 {
		if s.Logger != nil {
			s.Logger.Warn("crypto fetch failed, using fallback asset", zap.Error(err))
		}
		return fallbackCrypto()
	}
	c := coins[s.intn(len(coins))]
	return models.Asset{
		Name:   c.Name,
		Symbol: strings.ToUpper(c.Symbol),
		Price:  decimal.NewFromFloat(c.CurrentPrice),
	}
}

type coinMarket struct {
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`
}

func (s *Service) fetchTopCoins(ctx context.Context) ([]coinMarket, error) {
	url := s.CoinGeckoURL + "/api/v3/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=10&page=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("coingecko http %d", resp.StatusCode)
	}
	var coins []coinMarket
	if err := json.NewDecoder(resp.Body).Decode(&coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// ResolveOutcome fetches a fresh quote for crypto rounds and compares
// it to the reference price. Stock/forex rounds, fallback assets, and
// any fetch failure resolve against a simulated move instead.
func (s *Service) ResolveOutcome(ctx context.Context, round models.Round) models.Outcome {
	old := round.Asset.Price
	if round.Category == models.CategoryCrypto && !round.Asset.Fallback {
		if coins, err := s.fetchTopCoins(ctx); err == nil {
			for _, c := range coins {
				if strings.EqualFold(c.Symbol, round.Asset.Symbol) {
					newPrice := decimal.NewFromFloat(c.CurrentPrice)
					return outcomeFor(old, newPrice, false)
				}
			}
		} else if s.Logger != nil {
			s.Logger.Warn("crypto resolve failed, simulating outcome",
				zap.String("symbol", round.Asset.Symbol), zap.Error(err))
		}
	}
	pct := s.uniform(-0.05, 0.05)
	newPrice := old.Mul(decimal.NewFromFloat(1 + pct)).Round(4)
	return outcomeFor(old, newPrice, true)
}

func outcomeFor(old, new decimal.Decimal, simulated bool) models.Outcome {
	dir := models.DirectionDown
	if new.GreaterThan(old) {
		dir = models.DirectionUp
	}
	return models.Outcome{Direction: dir, OldPrice: old, NewPrice: new, Simulated: simulated}
}

func fallbackCrypto() models.Asset {
	return models.Asset{
		Name:     "Bitcoin",
		Symbol:   "BTC",
		Price:    decimal.NewFromInt(30000),
		Fallback: true,
	}
}

func (s *Service) pick(pool []string) string {
	return pool[s.intn(len(pool))]
}

func (s *Service) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

func (s *Service) uniform(lo, hi float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rnd.Float64()*(hi-lo)
}

func (s *Service) uniformDecimal(lo, hi float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(s.uniform(lo, hi)).Round(places)
}
