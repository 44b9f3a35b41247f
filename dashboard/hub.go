package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/dailyplan/dailyplan/log"
)

// Event tells connected displays that a page image has been regenerated.
type Event struct {
	Page    string `json:"page"`
	Image   string `json:"image"`
	Version string `json:"version"`
}

// Hub fans events out to the displays connected to /events. Slow subscribers miss
// events rather than blocking a build.
type Hub struct {
	sync.Mutex
	subscribers map[chan []byte]struct{}
	log         *log.Logger
}

const writeTimeout = 5 * time.Second

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Discard()
	}

	return &Hub{
		subscribers: map[chan []byte]struct{}{},
		log:         logger,
	}
}

func (h *Hub) Publish(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.log.Warnf("event %+v not published (%v)", event, err)
		return
	}

	h.Lock()
	defer h.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- msg:
		default:
			h.log.Debugf("dropped event for slow subscriber")
		}
	}
}

func (h *Hub) Subscribers() int {
	h.Lock()
	defer h.Unlock()

	return len(h.subscribers)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade failed (%v)", err)
		return
	}

	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())
	ch := h.subscribe()
	defer h.unsubscribe(ch)

	h.log.Debugf("display %v connected", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case msg := <-ch:
			if err := write(ctx, conn, msg); err != nil {
				h.log.Debugf("display %v disconnected (%v)", r.RemoteAddr, err)
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return conn.Write(ctx, websocket.MessageText, msg)
}

func (h *Hub) subscribe() chan []byte {
	ch := make(chan []byte, 16)

	h.Lock()
	h.subscribers[ch] = struct{}{}
	h.Unlock()

	return ch
}

func (h *Hub) unsubscribe(ch chan []byte) {
	h.Lock()
	delete(h.subscribers, ch)
	h.Unlock()
}
