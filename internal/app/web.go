// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/orientation_engine/internal/config"
	"github.com/relabs-tech/orientation_engine/internal/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsHub fans fused snapshots out to connected WebSocket clients.
type wsHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *wsHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *wsHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}

func (h *wsHub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

// RunWeb serves the orientation dashboard: a JSON API and WebSocket
// stream of fused snapshots, plus static files from the web directory.
func RunWeb() error {
	cfg := config.Get()

	var (
		mu         sync.RWMutex
		lastSnap   engine.Snapshot
		haveSnap   bool
		lastStatus engine.Status
		haveStatus bool
	)
	hub := newWSHub()

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to the fused orientation topic
	token := client.Subscribe(cfg.TopicOrientation, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var snap engine.Snapshot
		if err := json.Unmarshal(msg.Payload(), &snap); err != nil {
			log.Printf("MQTT payload unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastSnap = snap
		haveSnap = true
		mu.Unlock()
		hub.broadcast(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("subscribed to MQTT topic %s", cfg.TopicOrientation)

	// 3) Subscribe to the engine status heartbeat
	token = client.Subscribe(cfg.TopicStatus, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var st engine.Status
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("MQTT status unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastStatus = st
		haveStatus = true
		mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}

	// 4) JSON API: latest fused snapshot
	http.HandleFunc("/api/orientation", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveSnap {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastSnap); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	// 5) JSON API: latest engine status
	http.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveStatus {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastStatus); err != nil {
			log.Printf("json encode error: %v", err)
		}
	})

	// 6) Command relay: POST /api/calibrate re-zeros the engine
	http.HandleFunc("/api/calibrate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		t := client.Publish(cfg.TopicCommand, 0, false, `{"action":"calibrate"}`)
		t.Wait()
		if t.Error() != nil {
			http.Error(w, t.Error().Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	// 7) WebSocket stream of fused snapshots
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}
		hub.add(conn)

		// Send the last snapshot right away so the page is not blank.
		mu.RLock()
		if haveSnap {
			if payload, err := json.Marshal(lastSnap); err == nil {
				conn.WriteMessage(websocket.TextMessage, payload)
			}
		}
		mu.RUnlock()

		// Drain client messages until the connection dies.
		go func() {
			defer hub.remove(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	// 8) Static files from the web directory as the root
	fs := http.FileServer(http.Dir(cfg.WebStaticDir))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
