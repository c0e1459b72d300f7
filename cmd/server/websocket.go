package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/tatami-games/goban-server/pkg/server"
)

// handleWebSocket upgrades the request and hands the socket to the hub
func (app *application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := app.upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.Logger.Error("failed to upgrade to websocket", zap.Error(err))
		return
	}

	conn := server.NewConnection(ws, app.Hub, app.Publisher, app.Logger)
	app.Hub.Register(conn)

	app.Logger.Info("websocket connection established",
		zap.String("remote_addr", r.RemoteAddr))

	go conn.WritePump()
	go conn.ReadPump()
}
