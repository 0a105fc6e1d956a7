package ws

import (
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeachOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/logging"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/monitoring"
)

// subscriberBuffer is the per-connection event backlog. Record runs
// under the kernel lock, so a slow subscriber gets events dropped, not
// the kernel stalled.
const subscriberBuffer = 256

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type subscriber struct {
	ch      chan kernel.Event
	dropped uint64
}

// Hub fans kernel events out to WebSocket subscribers. It is a kernel
// event sink; Record never blocks.
type Hub struct {
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

var _ kernel.EventSink = (*Hub)(nil)

// NewHub creates a hub with no subscribers. Metrics may be nil.
func NewHub(log *logging.Logger, metrics *monitoring.Metrics) *Hub {
	if log == nil {
		log = logging.NewNop()
	}
	return &Hub{
		log:     log.Named("ws"),
		metrics: metrics,
		subs:    make(map[*subscriber]struct{}),
	}
}

// Record delivers the event to every subscriber that has buffer room.
func (h *Hub) Record(ev kernel.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.ch <- ev:
		default:
			s.dropped++
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Handle upgrades the request and streams events until the client
// disconnects.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := &subscriber{ch: make(chan kernel.Event, subscriberBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	defer func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
		if h.metrics != nil {
			h.metrics.DecWSConnections()
		}
		if sub.dropped > 0 {
			h.log.Warn("Subscriber lagged",
				zap.Uint64("dropped_events", sub.dropped))
		}
	}()

	// Reads are only consumed to notice the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-sub.ch:
			data, err := sonic.Marshal(ev)
			if err != nil {
				h.log.Error("Event encode failed", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			if h.metrics != nil {
				h.metrics.RecordWSEvent()
			}
		case <-done:
			return
		}
	}
}
