// Package stream fans live odds snapshots out to websocket subscribers. Each
// accepted bet publishes the market's fresh odds; slow subscribers are
// dropped-from, never blocked-on.
package stream

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// OddsUpdate is one pushed odds snapshot for a market.
type OddsUpdate struct {
	MarketID   uint64    `json:"marketId"`
	OddsA      string    `json:"oddsA"`
	OddsB      string    `json:"oddsB"`
	TotalPoolA string    `json:"totalPoolA"`
	TotalPoolB string    `json:"totalPoolB"`
	At         time.Time `json:"at"`
}

type subscriber struct {
	id uint64
	ch chan OddsUpdate
}

type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64][]subscriber
	nextID uint64
	buf    int

	logger  *zap.Logger
	dropped uint64
}

func NewHub(logger *zap.Logger, buf int) *Hub {
	if buf <= 0 {
		buf = 16
	}
	return &Hub{
		subs:   map[uint64][]subscriber{},
		buf:    buf,
		logger: logger,
	}
}

// Subscribe returns a channel receiving odds updates for one market, plus a
// cancel func the caller must run when done.
func (h *Hub) Subscribe(marketID uint64) (<-chan OddsUpdate, func()) {
	ch := make(chan OddsUpdate, h.buf)
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[marketID] = append(h.subs[marketID], subscriber{id: id, ch: ch})
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		list := h.subs[marketID]
		for i, sub := range list {
			if sub.id == id {
				h.subs[marketID] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(h.subs[marketID]) == 0 {
			delete(h.subs, marketID)
		}
	}
	return ch, cancel
}

// Publish delivers an update to every subscriber of its market without
// blocking; a full subscriber buffer drops the update for that subscriber.
func (h *Hub) Publish(u OddsUpdate) {
	if h == nil {
		return
	}
	h.mu.RLock()
	list := h.subs[u.MarketID]
	h.mu.RUnlock()
	for _, sub := range list {
		select {
		case sub.ch <- u:
		default:
			n := atomic.AddUint64(&h.dropped, 1)
			if h.logger != nil && n%100 == 1 {
				h.logger.Warn("odds stream dropping updates",
					zap.Uint64("market_id", u.MarketID),
					zap.Uint64("dropped_total", n),
				)
			}
		}
	}
}

// Dropped reports how many updates were discarded for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return atomic.LoadUint64(&h.dropped)
}
