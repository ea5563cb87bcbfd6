package httpinterface

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/escrowd/internal/core/application/pubsub"
	"github.com/tdex-network/escrowd/internal/core/domain"
	"github.com/tdex-network/escrowd/internal/core/ports"
	"github.com/tdex-network/escrowd/pkg/stats"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
	readTimeout  = 2 * pingInterval
)

type streamHandler struct {
	pubsubSvc *pubsub.Service
	upgrader  websocket.Upgrader
}

func newStreamHandler(pubsubSvc *pubsub.Service) *streamHandler {
	return &streamHandler{
		pubsubSvc: pubsubSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// streamEvents upgrades the connection to websocket and forwards every
// committed event, optionally filtered by type, until the client goes away.
func (h *streamHandler) streamEvents(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("event")
	if len(topic) > 0 && topic != ports.AnyTopic &&
		!domain.EventType(topic).IsValid() {
		writeError(w, badRequest("invalid event type %q", topic))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("failed to upgrade event stream connection")
		return
	}
	defer conn.Close()

	id, events := h.pubsubSvc.AddListener(pubsub.DefaultListenerBuffer)
	defer h.pubsubSvc.RemoveListener(id)

	stats.StreamListeners.Inc()
	defer stats.StreamListeners.Dec()
	log.Debugf("event stream %s opened", id)

	done := make(chan struct{})
	go readPump(conn, done)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			log.Debugf("event stream %s closed by client", id)
			return
		case ev, ok := <-events:
			if !ok {
				writeClose(conn)
				return
			}
			if len(topic) > 0 && topic != ports.AnyTopic &&
				string(ev.Type) != topic {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				log.WithError(err).Debugf("event stream %s write failed", id)
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := conn.WriteControl(
				websocket.PingMessage, nil, deadline,
			); err != nil {
				return
			}
		}
	}
}

// readPump consumes the control frames sent by the client and signals when
// the connection is gone.
func readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeClose(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
}
