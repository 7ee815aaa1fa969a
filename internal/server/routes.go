package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kfalicov/super-swash-bros/internal/signaling"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,

	// The web client is served from a different origin during development.
	// In production this should check r.Header.Get("Origin") against the
	// game's domain.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// New builds the HTTP surface: the websocket signaling endpoint, the
// liveness probe the menu checks before showing host/join controls, the
// public room listing, and the announce hook.
func New(hub *signaling.Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", handleHealth)
	r.Get("/rooms", handleRooms(hub))
	r.Post("/announce", handleAnnounce(hub))
	r.Get("/ws", ServeWs(hub))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleRooms lists joinable public rooms. Private rooms are excluded from
// discovery.
func handleRooms(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(hub.ListRooms())
	}
}

// handleAnnounce broadcasts an alert to every connected participant.
func handleAnnounce(hub *signaling.Hub) http.HandlerFunc {
	type announcement struct {
		Message string `json:"message"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body announcement
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Message == "" {
			http.Error(w, "invalid announcement", http.StatusBadRequest)
			return
		}
		hub.Announce(body.Message)
		w.WriteHeader(http.StatusOK)
	}
}

// ServeWs upgrades the HTTP request to a websocket, binds a fresh session
// ID to the connection, and hands it to the hub.
func ServeWs(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "err", err)
			return
		}

		client := signaling.NewClient(hub, conn, uuid.NewString())
		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
