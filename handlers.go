package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const roomPath = "/ws/room/{room}/user/{user}"

type wsHandler struct {
	s *server
}

func (wsh wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	room, user, ok := validateRequest(w, r)
	if !ok {
		return
	}
	ws, err := wsh.s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wsh.s.log.WithError(err).Debug("websocket upgrade")
		return
	}
	conn := websocketInteractor{ws: ws}
	wsh.s.track(conn)
	defer wsh.s.untrack(conn)

	c := newConnection(conn, wsh.s, room, user)
	logEnd(c.log, c.run())
}

type pingHandler struct {
	s *server
}

func (ph pingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := ph.s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ph.s.log.WithError(err).Debug("websocket upgrade")
		return
	}
	conn := websocketInteractor{ws: ws}
	ph.s.track(conn)
	defer ph.s.untrack(conn)

	p := newPingSession(conn, ph.s)
	logEnd(p.log, p.run())
}

type getHandler struct {
	s *server
}

func (gh getHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	room, user, ok := validateRequest(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	webTemplate.Execute(w, templateArgs{Room: room, User: user, Path: r.URL.Path})
}

type postHandler struct {
	s *server
}

func (ph postHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	room, user, ok := validateRequest(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, ph.s.cfg.ReadLimit+1))
	if err != nil {
		sendBadRequestError(w, "Unable to read POST body.")
		return
	}
	if int64(len(body)) > ph.s.cfg.ReadLimit {
		sendBadRequestError(w, fmt.Sprintf("Body must be at most %d bytes.", ph.s.cfg.ReadLimit))
		return
	}
	text, err := decodeEnvelope(body)
	if err != nil {
		sendBadRequestError(w, `Body must be a JSON object with a string "message".`)
		return
	}
	if err := checkText(text); err != nil {
		// Soft-drop, as for a websocket frame.
		ph.s.m.incr("rejected", 1)
		w.Write([]byte("OK\n"))
		return
	}
	ph.s.hub.publish(room, message{author: user, text: text})
	w.Write([]byte("OK\n"))
}

type resetHandler struct {
	s *server
}

func (rh resetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rh.s.views.reset()
	w.WriteHeader(http.StatusOK)
}

type viewsHandler struct {
	s *server
}

func (vh viewsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(strconv.FormatInt(vh.s.views.read(), 10)))
}

type roomsHandler struct {
	s *server
}

func (rh roomsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rh.s.hub.rooms())
}

// validateRequest checks the room and user path parameters and writes a
// 400 response if either is unusable.
func validateRequest(w http.ResponseWriter, r *http.Request) (room, user string, ok bool) {
	vars := mux.Vars(r)
	room, user = vars["room"], vars["user"]
	for _, p := range []struct{ name, value string }{{"Room", room}, {"User", user}} {
		if !utf8.ValidString(p.value) {
			sendBadRequestError(w, p.name+" must be valid Unicode (UTF-8).")
			return "", "", false
		}
		n := utf8.RuneCountInString(p.value)
		if !(nameLenMin <= n && n <= nameLenMax) {
			sendBadRequestError(w, fmt.Sprintf(
				"%s length must be %d-%d Unicode characters (UTF-8).",
				p.name, nameLenMin, nameLenMax))
			return "", "", false
		}
	}
	return room, user, true
}

func sendBadRequestError(w http.ResponseWriter, str string) {
	http.Error(w,
		fmt.Sprintf("Error: bad request. %s", str),
		http.StatusBadRequest)
}

// logEnd records why a session ended.
func logEnd(log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, errLagged):
		log.WithError(err).Info("session dropped")
	case isExpectedClose(err):
		log.WithError(err).Debug("session closed")
	default:
		log.WithError(err).Warn("session closed")
	}
}
