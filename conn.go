package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var (
	errProtocol    = errors.New("protocol violation")
	errTextTooLong = errors.New("message text too long")
	errLagged      = errors.New("subscription dropped")
)

// envelope is a frame sent by a participant.
type envelope struct {
	Message *string `json:"message"`
}

// outbound is a frame sent to a participant.
type outbound struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

// decodeEnvelope returns the text of a participant frame. Anything other
// than a JSON object with a string "message" is a protocol violation.
func decodeEnvelope(p []byte) (string, error) {
	var e envelope
	if err := json.Unmarshal(p, &e); err != nil {
		return "", fmt.Errorf("%w: %v", errProtocol, err)
	}
	if e.Message == nil {
		return "", fmt.Errorf("%w: missing message", errProtocol)
	}
	return *e.Message, nil
}

func checkText(text string) error {
	if utf8.RuneCountInString(text) > maxTextLen {
		return errTextTooLong
	}
	return nil
}

// connection is a chat session: one participant in one room.
type connection struct {
	ws        websocketManager
	h         *hub
	views     *viewCounter
	m         *metrics
	keepalive *mTicker
	log       logrus.FieldLogger

	room string
	user string

	readLimit int64
	pongWait  time.Duration

	sub     *subscription
	inbound chan []byte
	gone    chan struct{} // closed by reader when the remote side is done
	done    chan struct{} // closed by run when the session ends
	readErr error
}

func newConnection(ws websocketManager, s *server, room, user string) *connection {
	return &connection{
		ws:        ws,
		h:         s.hub,
		views:     s.views,
		m:         s.m,
		keepalive: s.keepalive,
		log: s.log.WithFields(logrus.Fields{
			"room":   room,
			"user":   user,
			"remote": ws.wsRemoteAddr(),
		}),
		room:      room,
		user:      user,
		readLimit: s.cfg.ReadLimit,
		pongWait:  s.cfg.PongWait,
		inbound:   make(chan []byte),
		gone:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// run joins the room and services the participant until either side goes
// away. The returned error says why the session ended.
func (c *connection) run() error {
	sub, err := c.h.subscribe(c.room)
	if err != nil {
		c.ws.wsClose()
		return fmt.Errorf("join room %q: %w", c.room, err)
	}
	c.sub = sub
	c.m.incr("websockets", 1)
	c.log.Debug("joined")
	defer func() {
		c.m.decr("websockets", 1)
		c.h.unsubscribe(sub)
		c.ws.wsClose()
	}()

	var tick <-chan time.Time
	if c.keepalive != nil {
		ts := c.keepalive.subscribe()
		defer c.keepalive.unsubscribe(ts)
		tick = ts.tick
	}

	c.ws.wsSetReadLimit(c.readLimit)
	c.ws.wsSetReadDeadline(c.pongWait)
	c.ws.wsSetPongHandler(c.pongWait)
	go c.reader()
	defer close(c.done)

	for {
		select {
		case frame := <-c.inbound:
			if err := c.readMessage(frame); err != nil {
				return err
			}
		case msg := <-sub.messages():
			// A remote that is already gone gets nothing more, not even a count.
			select {
			case <-c.gone:
				return c.readErr
			default:
			}
			if err := c.writeMessage(msg); err != nil {
				return err
			}
		case <-sub.dropped():
			return errLagged
		case <-c.gone:
			return c.readErr
		case _, ok := <-tick:
			if !ok {
				tick = nil
				continue
			}
			if err := c.ws.wsWritePing(); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

// reader hands inbound frames to run until the connection fails.
func (c *connection) reader() {
	for {
		_, p, err := c.ws.wsReadMessage()
		if err != nil {
			c.readErr = err
			close(c.gone)
			return
		}
		select {
		case c.inbound <- p:
		case <-c.done:
			return
		}
	}
}

// readMessage publishes a participant frame to the room. Overlong text is
// dropped; a malformed frame ends the session.
func (c *connection) readMessage(frame []byte) error {
	text, err := decodeEnvelope(frame)
	if err != nil {
		return err
	}
	if err := checkText(text); err != nil {
		c.m.incr("rejected", 1)
		c.log.WithField("len", utf8.RuneCountInString(text)).Debug("message dropped")
		return nil
	}
	c.m.incr("conn.recv", 1)
	c.sub.ch.publish(message{author: c.user, text: text})
	return nil
}

// writeMessage counts a view for msg and forwards it to the participant.
func (c *connection) writeMessage(msg message) error {
	c.views.increment()
	payload, err := json.Marshal(outbound{User: msg.author, Message: msg.text})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := c.ws.wsWriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	c.m.incr("conn.send", 1)
	return nil
}
