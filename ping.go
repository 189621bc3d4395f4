package main

import (
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	tokenServe = "serve"
	tokenPing  = "ping"
	tokenPong  = "pong"
)

type pingState int

const (
	pingIdle pingState = iota
	pingStarted
)

func (s pingState) String() string {
	switch s {
	case pingIdle:
		return "idle"
	case pingStarted:
		return "started"
	}
	return fmt.Sprintf("pingState(%d)", int(s))
}

// pingSession answers "ping" with "pong", but only once it has been told
// to "serve". Anything else is ignored.
type pingSession struct {
	ws    websocketManager
	m     *metrics
	log   logrus.FieldLogger
	state pingState

	readLimit int64
}

func newPingSession(ws websocketManager, s *server) *pingSession {
	return &pingSession{
		ws:  ws,
		m:   s.m,
		log: s.log.WithField("remote", ws.wsRemoteAddr()),

		readLimit: s.cfg.ReadLimit,
	}
}

func (p *pingSession) run() error {
	p.m.incr("pings", 1)
	defer func() {
		p.m.decr("pings", 1)
		p.ws.wsClose()
	}()
	p.ws.wsSetReadLimit(p.readLimit)
	for {
		_, frame, err := p.ws.wsReadMessage()
		if err != nil {
			return err
		}
		if err := p.onFrame(string(frame)); err != nil {
			return err
		}
	}
}

func (p *pingSession) onFrame(token string) error {
	switch p.state {
	case pingIdle:
		if token == tokenServe {
			p.state = pingStarted
			p.log.Debug("ping session started")
		}
	case pingStarted:
		if token == tokenPing {
			if err := p.ws.wsWriteMessage(websocket.TextMessage, []byte(tokenPong)); err != nil {
				return fmt.Errorf("write pong: %w", err)
			}
		}
	}
	return nil
}
