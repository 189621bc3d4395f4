package main

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
)

// websocketManager is the connection a session runs on. A session reads
// from one goroutine and writes from one goroutine; wsClose may be called
// from anywhere.
type websocketManager interface {
	wsSetReadLimit(limit int64)
	wsSetReadDeadline(wait time.Duration)
	wsSetPongHandler(wait time.Duration)
	wsReadMessage() (int, []byte, error)
	wsWriteMessage(int, []byte) error
	wsWritePing() error
	wsClose()
	wsRemoteAddr() string
}

type websocketInteractor struct {
	ws *websocket.Conn
}

func (w websocketInteractor) wsSetReadLimit(limit int64) {
	if limit > 0 {
		w.ws.SetReadLimit(limit)
	}
}

// wsSetReadDeadline expires reads after wait. A zero wait disables it.
func (w websocketInteractor) wsSetReadDeadline(wait time.Duration) {
	if wait <= 0 {
		return
	}
	w.ws.SetReadDeadline(time.Now().Add(wait))
}

func (w websocketInteractor) wsSetPongHandler(wait time.Duration) {
	if wait <= 0 {
		return
	}
	w.ws.SetPongHandler(func(string) error { w.wsSetReadDeadline(wait); return nil })
}

func (w websocketInteractor) wsReadMessage() (messageType int, p []byte, err error) {
	return w.ws.ReadMessage()
}

func (w websocketInteractor) wsWriteMessage(messageType int, payload []byte) error {
	w.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return w.ws.WriteMessage(messageType, payload)
}

func (w websocketInteractor) wsWritePing() error {
	return w.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (w websocketInteractor) wsClose() {
	w.ws.Close()
}

func (w websocketInteractor) wsRemoteAddr() string {
	return w.ws.RemoteAddr().String()
}

// isExpectedClose reports whether err is an ordinary end of a session
// rather than something worth a warning. Transport errors (EOF, reset,
// closed connection) are routine; only odd close codes are not.
func isExpectedClose(err error) bool {
	var ce *websocket.CloseError
	if !errors.As(err, &ce) {
		return true
	}
	switch ce.Code {
	case websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure:
		return true
	}
	return false
}
