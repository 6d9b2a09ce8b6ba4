package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"coliseum/internal/service"
	"coliseum/internal/stream"
)

// StreamHandler upgrades /ws/markets/:id/odds to a websocket and pushes an
// odds snapshot on subscribe plus one update per accepted bet.
type StreamHandler struct {
	Hub          *stream.Hub
	Service      *service.MarketService
	Logger       *zap.Logger
	WriteTimeout time.Duration
	PingInterval time.Duration
}

func (h *StreamHandler) Register(r *gin.Engine) {
	r.GET("/ws/markets/:id/odds", h.odds)
}

func (h *StreamHandler) odds(c *gin.Context) {
	marketID := uint64Param(c, "id")
	if marketID == 0 {
		Error(c, http.StatusBadRequest, "invalid market id", nil)
		return
	}
	// Reject unknown markets before the upgrade so callers get a JSON 404
	// instead of a dangling socket.
	if _, err := h.Service.GetMarket(c.Request.Context(), marketID); err != nil {
		Fail(c, err)
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.Logger.Warn("websocket accept failed", zap.Uint64("market_id", marketID), zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	ctx := c.Request.Context()
	updates, cancel := h.Hub.Subscribe(marketID)
	defer cancel()

	// Drain reads so client close frames are processed.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	// Initial snapshot so subscribers see odds before the next bet lands.
	if snap, err := h.Service.GetOdds(ctx, marketID); err == nil {
		first := stream.OddsUpdate{
			MarketID:   marketID,
			OddsA:      snap.OddsA,
			OddsB:      snap.OddsB,
			TotalPoolA: snap.TotalPoolA,
			TotalPoolB: snap.TotalPoolB,
			At:         time.Now().UTC(),
		}
		if err := h.write(ctx, conn, first); err != nil {
			return
		}
	}

	pingEvery := h.PingInterval
	if pingEvery <= 0 {
		pingEvery = 30 * time.Second
	}
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "shutdown")
			return
		case <-readDone:
			return
		case u, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "stream closed")
				return
			}
			if err := h.write(ctx, conn, u); err != nil {
				return
			}
		case <-ticker.C:
			if err := h.ping(ctx, conn); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) write(ctx context.Context, conn *websocket.Conn, u stream.OddsUpdate) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return err
	}
	wctx := ctx
	if h.WriteTimeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, h.WriteTimeout)
		defer cancel()
	}
	return conn.Write(wctx, websocket.MessageText, payload)
}

func (h *StreamHandler) ping(ctx context.Context, conn *websocket.Conn) error {
	pctx := ctx
	if h.WriteTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, h.WriteTimeout)
		defer cancel()
	}
	return conn.Ping(pctx)
}
