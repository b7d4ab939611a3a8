package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// SetupRoutes configures HTTP routes: the WebSocket gateway plus the
// read-only query surface that lives outside the tick loop.
func SetupRoutes(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	if clientDir != "" {
		fs := http.FileServer(http.Dir(clientDir))
		mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-cache")
			fs.ServeHTTP(w, r)
		}))
	}

	// Room list with member counts, capacity and status
	mux.HandleFunc("GET /api/rooms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hub.registry.List())
	})

	// One room's full current snapshot
	mux.HandleFunc("GET /api/rooms/{id}", func(w http.ResponseWriter, r *http.Request) {
		room := hub.registry.Get(r.PathValue("id"))
		if room == nil {
			writeJSON(w, http.StatusNotFound, ErrorMsg{Msg: "room not found"})
			return
		}
		writeJSON(w, http.StatusOK, room.Snapshot())
	})

	// QR code of the room join URL, for picking up a match on a phone
	mux.HandleFunc("GET /api/rooms/{id}/qr", func(w http.ResponseWriter, r *http.Request) {
		room := hub.registry.Get(r.PathValue("id"))
		if room == nil {
			writeJSON(w, http.StatusNotFound, ErrorMsg{Msg: "room not found"})
			return
		}
		joinURL := "http://" + r.Host + "/?join=" + room.ID
		png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorMsg{Msg: "qr generation failed"})
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	// Live server counters for ops dashboards
	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ServerStats{
			Clients: hub.ClientCount(),
			Conns:   hub.TotalConns(),
			Rooms:   hub.registry.Count(),
		})
	})

	mux.HandleFunc("GET /api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			writeJSON(w, http.StatusServiceUnavailable, ErrorMsg{Msg: "no database"})
			return
		}
		entries, err := hub.db.GetLeaderboard(20)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorMsg{Msg: "leaderboard query failed"})
			return
		}
		if entries == nil {
			entries = []LeaderboardEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	})

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	return mux
}
