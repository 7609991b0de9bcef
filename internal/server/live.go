package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *handler) liveBoard(c echo.Context) error {
	return ok(c, h.Live.Latest(c.Request().Context()))
}

// liveSocket pushes every board frame to the client until it disconnects.
// Client messages are read only to notice the close.
func (h *handler) liveSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return err
	}
	defer ws.Close()

	ctx := c.Request().Context()
	frames, release := h.Live.Subscribe()
	defer release()
	if h.Metrics != nil {
		h.Metrics.ViewerJoined()
		defer h.Metrics.ViewerLeft()
	}

	if err := ws.WriteJSON(h.Live.Latest(ctx)); err != nil {
		return nil
	}

	quit := make(chan struct{})
	go func() {
		defer close(quit)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				if ce, ok := err.(*websocket.CloseError); !ok ||
					(ce.Code != websocket.CloseNormalClosure && ce.Code != websocket.CloseGoingAway) {
					h.Logger.Debug("websocket closed", zap.Error(err))
				}
				return
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case <-ctx.Done():
			return nil
		case b := <-frames:
			if err := ws.WriteJSON(b); err != nil {
				h.Logger.Debug("websocket write failed", zap.Error(err))
				return nil
			}
		}
	}
}
