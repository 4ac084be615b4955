package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"text/template"

	"eyespy/internal/rooms"
)

type Server struct {
	Rooms      *rooms.Store
	Tmpl       *template.Template
	SendBuffer int
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	if err := s.Tmpl.ExecuteTemplate(w, "create", nil); err != nil {
		log.Println(err)
		http.Error(w, "Error rendering create page", http.StatusInternalServerError)
	}
}

func (s *Server) handleRoomPage(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	if s.Rooms.Get(code) == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := s.Tmpl.ExecuteTemplate(w, "room", map[string]string{"Code": code}); err != nil {
		log.Println(err)
		http.Error(w, "Error rendering room page", http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	fmt.Println("[Handle:CreateRoom] Request Received")

	room, err := s.Rooms.Create()
	if err != nil {
		log.Println(err)
		http.Error(w, "Failed to create room", http.StatusInternalServerError)
		return
	}

	fmt.Printf("[Handle:CreateRoom] Created room %s\n", room.Code)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(rooms.Snapshot{
		Code:  room.Code,
		Users: room.Users.Snapshot(),
	}); err != nil {
		log.Println(err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, `{"status":"ok"}`)
}
