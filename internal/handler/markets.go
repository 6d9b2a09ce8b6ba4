package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coliseum/internal/repository"
	"coliseum/internal/service"
)

type MarketHandler struct {
	Service *service.MarketService
	Admin   gin.HandlerFunc
	// RateLimit wraps bet placement only; reads stay unthrottled.
	RateLimit gin.HandlerFunc
}

func (h *MarketHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/markets")
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/odds", h.odds)
	g.GET("/:id/bets", h.bets)
	g.GET("/:id/claims", h.claims)
	g.GET("/:id/preview", h.preview)
	placeBet := []gin.HandlerFunc{h.placeBet}
	if h.RateLimit != nil {
		placeBet = []gin.HandlerFunc{h.RateLimit, h.placeBet}
	}
	g.POST("/:id/bet", placeBet...)
	if h.Admin != nil {
		g.POST("/:id/resolve", h.Admin, h.resolve)
	} else {
		g.POST("/:id/resolve", h.resolve)
	}
}

type placeBetRequest struct {
	Bettor  string `json:"bettor"`
	AgentID uint64 `json:"agentId"`
	Amount  string `json:"amount"`
}

type resolveMarketRequest struct {
	Winner uint64 `json:"winner"`
}

// @Summary List markets
// @Tags markets
// @Router /api/v1/markets [get]
func (h *MarketHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	params := repository.ListMarketsParams{
		Limit:  limit,
		Offset: offset,
		Status: statusQuery(c),
	}
	items, total, err := h.Service.ListMarkets(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Get one market
// @Tags markets
// @Router /api/v1/markets/{id} [get]
func (h *MarketHandler) get(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid market id", nil)
		return
	}
	item, err := h.Service.GetMarket(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Live odds for a market
// @Tags markets
// @Router /api/v1/markets/{id}/odds [get]
func (h *MarketHandler) odds(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid market id", nil)
		return
	}
	snap, err := h.Service.GetOdds(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, snap, nil)
}

// @Summary Place a bet
// @Tags markets
// @Router /api/v1/markets/{id}/bet [post]
func (h *MarketHandler) placeBet(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid market id", nil)
		return
	}
	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	bet, err := h.Service.PlaceBet(c.Request.Context(), service.PlaceBetInput{
		MarketID: id,
		Bettor:   req.Bettor,
		AgentID:  req.AgentID,
		Amount:   req.Amount,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, gin.H{
		"betId":    bet.ID,
		"marketId": bet.MarketID,
		"bettor":   bet.Bettor,
		"agentId":  bet.AgentID,
		"amount":   bet.Amount.String(),
	})
}

// @Summary Bets on a market, in placement order
// @Tags markets
// @Router /api/v1/markets/{id}/bets [get]
func (h *MarketHandler) bets(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid market id", nil)
		return
	}
	items, err := h.Service.ListBets(c.Request.Context(), id, bettorQuery(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, nil)
}

// @Summary Computed claims for a resolved market
// @Tags markets
// @Router /api/v1/markets/{id}/claims [get]
func (h *MarketHandler) claims(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid market id", nil)
		return
	}
	items, err := h.Service.Claims(c.Request.Context(), id, bettorQuery(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, nil)
}

// @Summary Preview a pari-mutuel payout without placing the bet
// @Tags markets
// @Router /api/v1/markets/{id}/preview [get]
func (h *MarketHandler) preview(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid market id", nil)
		return
	}
	agentID := uint64Query(c, "agentId")
	if agentID == 0 {
		Error(c, http.StatusBadRequest, "agentId query parameter required", nil)
		return
	}
	payout, err := h.Service.PreviewPayout(c.Request.Context(), id, agentID, c.Query("amount"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"projectedPayout": payout.String()}, nil)
}

// @Summary Resolve a market
// @Tags markets
// @Router /api/v1/markets/{id}/resolve [post]
func (h *MarketHandler) resolve(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid market id", nil)
		return
	}
	var req resolveMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	item, err := h.Service.ResolveMarket(c.Request.Context(), id, req.Winner)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

func bettorQuery(c *gin.Context) *string {
	if v := strings.TrimSpace(c.Query("bettor")); v != "" {
		return &v
	}
	return nil
}
