package server

import (
	"eyespy/internal/config"
	"eyespy/internal/metrics"
	"eyespy/internal/rooms"
	"fmt"
	"net/http"
	"text/template"
	"time"

	"github.com/rs/cors"
)

func Run() error {
	appCfg := config.Load()

	roomStore := rooms.NewStore(time.Duration(appCfg.RoomTTLMinutes) * time.Minute)

	tmpl := template.Must(template.New("").ParseFiles(
		"templates/create.html",
		"templates/room.html",
	))

	srv := &Server{
		Rooms:      roomStore,
		Tmpl:       tmpl,
		SendBuffer: appCfg.SendBuffer,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", srv.handleCreatePage)
	mux.HandleFunc("/rooms/{code}", srv.handleRoomPage)
	mux.HandleFunc("POST /api/rooms", srv.handleCreateRoom)
	mux.HandleFunc("/ws/rooms/{code}/client", srv.handleClientWS)
	mux.HandleFunc("/ws/rooms/{code}/console", srv.handleConsoleWS)
	mux.HandleFunc("/health", srv.handleHealth)
	mux.Handle("/metrics", metrics.Handler())

	handler := cors.New(cors.Options{
		AllowedOrigins: appCfg.CORSAllow,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(mux)

	addr := "0.0.0.0:" + appCfg.Port
	fmt.Printf("Server listening on http://localhost:%s\n", appCfg.Port)
	return http.ListenAndServe(addr, handler)
}
