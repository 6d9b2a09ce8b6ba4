package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coliseum/internal/repository"
	"coliseum/internal/service"
)

type FightHandler struct {
	Service *service.FightService
	Admin   gin.HandlerFunc
}

func (h *FightHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/fights")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	if h.Admin != nil {
		g.POST("/:id/resolve", h.Admin, h.resolve)
	} else {
		g.POST("/:id/resolve", h.resolve)
	}
}

type createFightRequest struct {
	AgentA      uint64 `json:"agentA"`
	AgentB      uint64 `json:"agentB"`
	StakeAmount string `json:"stakeAmount"`
}

type resolveFightRequest struct {
	Winner uint64 `json:"winner"`
}

// @Summary List fights
// @Tags fights
// @Router /api/v1/fights [get]
func (h *FightHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	params := repository.ListFightsParams{
		Limit:  limit,
		Offset: offset,
		Status: statusQuery(c),
	}
	items, total, err := h.Service.ListFights(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Create a fight and its betting market
// @Tags fights
// @Router /api/v1/fights [post]
func (h *FightHandler) create(c *gin.Context) {
	var req createFightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	fight, market, err := h.Service.CreateFight(c.Request.Context(), service.CreateFightInput{
		AgentA:      req.AgentA,
		AgentB:      req.AgentB,
		StakeAmount: req.StakeAmount,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, gin.H{"fight": fight, "market": market})
}

// @Summary Get one fight
// @Tags fights
// @Router /api/v1/fights/{id} [get]
func (h *FightHandler) get(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid fight id", nil)
		return
	}
	item, err := h.Service.GetFight(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Record a fight's winner
// @Tags fights
// @Router /api/v1/fights/{id}/resolve [post]
func (h *FightHandler) resolve(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid fight id", nil)
		return
	}
	var req resolveFightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	res, err := h.Service.ResolveFight(c.Request.Context(), id, req.Winner)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, res, nil)
}
