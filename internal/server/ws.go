package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"eyespy/internal/metrics"
	"eyespy/internal/users"
	"eyespy/internal/wshub"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

var errProtocol = errors.New("malformed status update")

// decodeUpdate strictly decodes a client status message. Missing, extra, or
// mistyped fields are all protocol errors.
func decodeUpdate(data []byte) (users.User, error) {
	var msg struct {
		Name       *string       `json:"name"`
		DeviceID   *string       `json:"device_id"`
		IsCheating *bool         `json:"is_cheating"`
		Gaze       *users.Vector `json:"gaze"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&msg); err != nil {
		return users.User{}, fmt.Errorf("%w: %v", errProtocol, err)
	}
	if dec.More() {
		return users.User{}, fmt.Errorf("%w: trailing data", errProtocol)
	}
	if msg.Name == nil || msg.DeviceID == nil || msg.IsCheating == nil || msg.Gaze == nil {
		return users.User{}, fmt.Errorf("%w: missing required field", errProtocol)
	}
	if *msg.DeviceID == "" {
		return users.User{}, fmt.Errorf("%w: empty device_id", errProtocol)
	}
	return users.User{
		Name:       *msg.Name,
		DeviceID:   *msg.DeviceID,
		IsCheating: *msg.IsCheating,
		Gaze:       *msg.Gaze,
	}, nil
}

// handleClientWS serves a reporting device. Each decoded update is applied
// to the room and broadcast as one unit; on disconnect the device's entry is
// removed and the room broadcast again.
func (s *Server) handleClientWS(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	if s.Rooms.Get(code) == nil {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("[WS:Client] Accept error: %v\n", err)
		return
	}
	defer conn.CloseNow()

	session := uuid.New().String()
	log.Printf("[WS:Client] %s connected to room %s\n", session, code)
	metrics.ConnectedClients.Inc()
	defer metrics.ConnectedClients.Dec()

	ctx := r.Context()
	deviceID := ""
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Peer close or transport error. Remove the last seen device and
			// broadcast; if no update ever arrived the removal is a no-op but
			// the broadcast still fires.
			if err := s.Rooms.RemoveUser(code, deviceID); err != nil {
				log.Printf("[WS:Client] %s remove on disconnect: %v\n", session, err)
			}
			log.Printf("[WS:Client] %s disconnected from room %s\n", session, code)
			return
		}

		u, err := decodeUpdate(data)
		if err != nil {
			log.Printf("[WS:Client] %s protocol error: %v\n", session, err)
			conn.Close(websocket.StatusPolicyViolation, "malformed status update")
			return
		}

		if err := s.Rooms.ApplyUserUpdate(code, u); err != nil {
			log.Printf("[WS:Client] %s update failed: %v\n", session, err)
			conn.Close(websocket.StatusPolicyViolation, "room not found")
			return
		}
		deviceID = u.DeviceID
	}
}

// handleConsoleWS serves an observer. It registers the connection for
// fan-out, sends the current snapshot to it, then only watches for
// disconnect; anything the console sends is discarded.
func (s *Server) handleConsoleWS(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	if s.Rooms.Get(code) == nil {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("[WS:Console] Accept error: %v\n", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	client := wshub.NewClient(conn, s.SendBuffer)
	go client.WritePump(ctx)

	if err := s.Rooms.RegisterObserver(code, client); err != nil {
		// Room evicted between the lookup above and registration
		conn.Close(websocket.StatusPolicyViolation, "room not found")
		return
	}
	log.Printf("[WS:Console] %s attached to room %s\n", client.ID, code)
	metrics.ConnectedObservers.Inc()
	defer metrics.ConnectedObservers.Dec()
	defer s.Rooms.UnregisterObserver(code, client.ID)

	for {
		if _, _, err := conn.Read(ctx); err != nil {
			log.Printf("[WS:Console] %s detached from room %s\n", client.ID, code)
			return
		}
	}
}
