// Package web exposes the keep-alive HTTP surface hosting platforms
// ping to keep the bot process alive, plus a read-only leaderboard.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wab3io/MarketMover/internal/ledger"
)

type Handler struct {
	Ledger *ledger.Ledger
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", h.root)
	r.GET("/healthz", h.health)
	r.GET("/leaderboard", h.leaderboard)
}

func (h *Handler) root(c *gin.Context) {
	c.String(http.StatusOK, "Bot is running")
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) leaderboard(c *gin.Context) {
	if h.Ledger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "ledger_missing"})
		return
	}
	type entry struct {
		DisplayName string `json:"display_name"`
		Points      int64  `json:"points"`
	}
	players := h.Ledger.Leaderboard(10)
	out := make([]entry, 0, len(players))
	for _, p := range players {
		out = append(out, entry{DisplayName: p.DisplayName, Points: p.Points})
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": out})
}

// NewEngine builds the gin engine with recovery middleware.
func NewEngine(env string) *gin.Engine {
	if env == "dev" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	return engine
}
