package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coliseum/internal/models"
	"coliseum/internal/repository"
	"coliseum/internal/wallet"
)

type AgentHandler struct {
	Repo repository.Repository
}

func (h *AgentHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/agents")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.GET("/:id/stats", h.stats)
}

type createAgentRequest struct {
	Name        string `json:"name"`
	Owner       string `json:"owner"`
	MetadataURI string `json:"metadataURI"`
}

type updateAgentRequest struct {
	IsActive    *bool   `json:"isActive"`
	MetadataURI *string `json:"metadataURI"`
}

// @Summary List agents
// @Tags agents
// @Router /api/v1/agents [get]
func (h *AgentHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	params := repository.ListAgentsParams{
		Limit:      limit,
		Offset:     offset,
		ActiveOnly: strings.EqualFold(c.Query("active"), "true"),
	}
	items, err := h.Repo.ListAgents(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountAgents(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Register an agent
// @Tags agents
// @Router /api/v1/agents [post]
func (h *AgentHandler) create(c *gin.Context) {
	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 32 {
		Error(c, http.StatusBadRequest, "name must be 1-32 characters", nil)
		return
	}
	if !wallet.IsValidAddress(req.Owner) {
		Error(c, http.StatusBadRequest, "owner must be a 0x-prefixed address", nil)
		return
	}
	item := &models.Agent{
		Name:        name,
		Owner:       wallet.Normalize(req.Owner),
		MetadataURI: strings.TrimSpace(req.MetadataURI),
		IsActive:    true,
	}
	if err := h.Repo.CreateAgent(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Created(c, item)
}

// @Summary Get one agent
// @Tags agents
// @Router /api/v1/agents/{id} [get]
func (h *AgentHandler) get(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid agent id", nil)
		return
	}
	item, err := h.Repo.GetAgentByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "agent not found", nil)
		return
	}
	Ok(c, item, nil)
}

func (h *AgentHandler) update(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid agent id", nil)
		return
	}
	item, err := h.Repo.GetAgentByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "agent not found", nil)
		return
	}
	var req updateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	if err := h.Repo.UpdateAgentProfile(c.Request.Context(), id, req.IsActive, req.MetadataURI); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	item, err = h.Repo.GetAgentByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Agent win/loss stats
// @Tags agents
// @Router /api/v1/agents/{id}/stats [get]
func (h *AgentHandler) stats(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid agent id", nil)
		return
	}
	item, err := h.Repo.GetAgentByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "agent not found", nil)
		return
	}
	winRate := 0.0
	if item.TotalBattles > 0 {
		winRate = float64(item.Wins) / float64(item.TotalBattles) * 100
	}
	Ok(c, gin.H{
		"wins":         item.Wins,
		"losses":       item.Losses,
		"totalBattles": item.TotalBattles,
		"winRate":      fmt.Sprintf("%.2f", winRate),
	}, nil)
}
