package handlers

import (
	"context"
	"time"

	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-fir-api/api"
	"github.com/linesmerrill/police-fir-api/scope"
)

// DefaultPushInterval is used when Report.PushInterval is unset
const DefaultPushInterval = 30 * time.Second

const writeWait = 10 * time.Second

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// DashboardSocketHandler upgrades to a websocket and pushes the caller's
// dashboard every PushInterval until the client goes away
func (rp Report) DashboardSocketHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().With("error", err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()
	zap.S().Debugf("dashboard socket opened for %s", actor.ID)

	// the client never sends anything we need, reading only notices it leaving
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	interval := rp.PushInterval
	if interval <= 0 {
		interval = DefaultPushInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := rp.push(conn, actor); err != nil {
			zap.S().Debugf("dashboard socket closed for %s: %v", actor.ID, err)
			return
		}
		select {
		case <-gone:
			zap.S().Debugf("dashboard socket closed by %s", actor.ID)
			return
		case <-ticker.C:
		}
	}
}

// push writes one dashboard frame. Only write failures are returned; a
// failed build is reported to the client and retried on the next tick.
func (rp Report) push(conn *websocket.Conn, actor scope.Actor) error {
	ctx, cancel := context.WithTimeout(context.Background(), api.QueryTimeout)
	defer cancel()

	var frame interface{}
	resp, err := rp.dashboard(ctx, actor, DefaultUrgentLimit)
	if err != nil {
		zap.S().With("error", err).Error("failed to build dashboard frame")
		frame = map[string]string{"error": "dashboard unavailable"}
	} else {
		frame = resp
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(frame)
}
