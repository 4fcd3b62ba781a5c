package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/log"
	"github.com/tazhibayda/townboat/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	purgeWait  = 5 * time.Second
)

// Realtime upgrades to a websocket and runs one page session on it until
// the client goes away.
func (h *Handler) Realtime(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Ctx(c.Request.Context()).Error("websocket upgrade", zap.Error(err))
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()
	logger := log.Ctx(ctx, zap.String("module", "socket"), zap.String("uid", viewer(c).ID))

	var writeMu sync.Mutex
	sink := func(o realtime.Outbound) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		return ws.WriteJSON(o)
	}

	sess := realtime.NewSession(ctx, h.Source, realtime.Services{
		Mutator:     h.Mutator,
		Connections: h.Connections,
		Records:     h.Records,
		Bookmarks:   h.Bookmarks,
		Reader:      h.Expirer,
		Purger:      h.Store,
		Clubs:       h.Store,
	}, viewer(c), sink)
	defer func() {
		pctx, pcancel := context.WithTimeout(context.WithoutCancel(ctx), purgeWait)
		defer pcancel()
		sess.Close(pctx)
	}()

	if err := sess.Announce(); err != nil {
		return
	}

	go func() {
		t := time.NewTicker(pingPeriod)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				writeMu.Lock()
				err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
				writeMu.Unlock()
				if err != nil {
					cancel()
					return
				}
			}
		}
	}()

	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		var in realtime.Inbound
		if err := ws.ReadJSON(&in); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				if closeErr.Code != websocket.CloseNormalClosure && closeErr.Code != websocket.CloseGoingAway {
					logger.Debug("websocket closed", zap.Error(err))
				}
			} else if ctx.Err() == nil {
				logger.Debug("read failed", zap.Error(err))
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		if err := sess.Handle(ctx, in); err != nil {
			logger.Debug("write failed", zap.Error(err))
			return
		}
	}
}
