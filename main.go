package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/facebookgo/httpdown"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

func main() {
	// A local .env is optional.
	_ = godotenv.Load()

	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	report := logger.WriterLevel(logrus.InfoLevel)
	defer report.Close()
	m := newMetrics(report, cfg.MetricsTick)
	m.start()
	defer m.stop()

	s := newServer(cfg, logger, m)
	defer s.close()

	// Prepare the stoppable HTTP server
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	hd := &httpdown.HTTP{
		StopTimeout: cfg.StopTimeout,
		KillTimeout: cfg.KillTimeout,
	}

	logger.WithField("addr", cfg.Addr).Info("listening")
	if err := httpdown.ListenAndServe(srv, hd); err != nil {
		logger.WithError(err).Error("serve")
		return
	}
	logger.Info("stopped")
}

// server owns the process-wide state shared by every session: the room
// registry, the view counter and the keepalive ticker.
type server struct {
	cfg       config
	log       *logrus.Logger
	m         *metrics
	hub       *hub
	views     *viewCounter
	keepalive *mTicker
	upgrader  *websocket.Upgrader

	mu    sync.Mutex // Protects conns
	conns map[websocketManager]interface{}
}

func newServer(cfg config, log *logrus.Logger, m *metrics) *server {
	s := &server{
		cfg:   cfg,
		log:   log,
		m:     m,
		hub:   newHub(m, cfg.Buffer),
		views: newViewCounter(m),
		conns: make(map[websocketManager]interface{}),
	}
	if cfg.PingPeriod > 0 {
		s.keepalive = newMTicker(cfg.PingPeriod)
	}
	s.upgrader = &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *server) checkOrigin(r *http.Request) bool {
	if s.cfg.Origin == "" {
		return true
	}
	return r.Header.Get("Origin") == s.cfg.Origin
}

func (s *server) handler() http.Handler {
	r := mux.NewRouter()
	upgrade := func(r *http.Request, _ *mux.RouteMatch) bool {
		return websocket.IsWebSocketUpgrade(r)
	}

	// Route websocket requests
	r.Handle("/ws/ping", pingHandler{s: s}).Methods("GET").MatcherFunc(upgrade)
	r.Handle(roomPath, wsHandler{s: s}).Methods("GET").MatcherFunc(upgrade)

	// Route other GET and POST requests
	r.Handle(roomPath, getHandler{s: s}).Methods("GET")
	r.Handle(roomPath, postHandler{s: s}).Methods("POST")
	r.Handle("/reset", resetHandler{s: s}).Methods("POST")
	r.Handle("/views", viewsHandler{s: s}).Methods("GET")
	r.Handle("/rooms", roomsHandler{s: s}).Methods("GET")
	r.Handle("/metrics", s.m.handler()).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("OK"))
	}).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(r)
}

func (s *server) track(ws websocketManager) {
	s.mu.Lock()
	s.conns[ws] = nil
	s.mu.Unlock()
}

func (s *server) untrack(ws websocketManager) {
	s.mu.Lock()
	delete(s.conns, ws)
	s.mu.Unlock()
}

// close ends every session. Hijacked websocket connections outlive the
// HTTP server's own shutdown, so they are closed here.
func (s *server) close() {
	s.hub.close()
	if s.keepalive != nil {
		s.keepalive.stop()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for ws := range s.conns {
		ws.wsClose()
	}
}
