// Package api exposes accounts, rooms and history over REST, and mounts the
// websocket endpoint on the same router.
package api

import (
	"chatwav/auth"
	"chatwav/contract"
	"chatwav/infrastructure/ws"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

type Router struct {
	Log      *slog.Logger
	Verifier contract.IdentityVerifier
	Auth     *AuthHandler
	Rooms    *RoomHandler
	Messages *MessageHandler
	// Websocket serves GET /ws.
	Websocket http.Handler
	// Inspector is mounted on /debug/inspect when set.
	Inspector http.Handler
	Origins   ws.OriginPolicy
	Now       func() time.Time
}

func (rt Router) Build() *mux.Router {
	r := mux.NewRouter()
	authenticated := auth.Middleware(rt.Verifier, func(w http.ResponseWriter, err error) {
		writeServiceError(w, rt.Log, err)
	})
	protect := func(h http.HandlerFunc) http.Handler { return authenticated(h) }

	r.HandleFunc("/health", rt.health).Methods(http.MethodGet)
	if rt.Websocket != nil {
		r.Handle("/ws", rt.Websocket).Methods(http.MethodGet)
	}
	if rt.Inspector != nil {
		r.Handle("/debug/inspect", rt.Inspector).Methods(http.MethodGet)
	}

	r.HandleFunc("/api/auth/register", rt.Auth.Register).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/auth/login", rt.Auth.Login).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/api/auth/me", protect(rt.Auth.Me)).Methods(http.MethodGet, http.MethodOptions)

	r.Handle("/api/rooms", protect(rt.Rooms.Create)).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/api/rooms", protect(rt.Rooms.List)).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/api/rooms/{id}", protect(rt.Rooms.Get)).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/api/rooms/{id}/join", protect(rt.Rooms.Join)).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/api/rooms/{id}/leave", protect(rt.Rooms.Leave)).Methods(http.MethodPost, http.MethodOptions)

	r.Handle("/api/messages/{roomId}", protect(rt.Messages.History)).Methods(http.MethodGet, http.MethodOptions)

	r.Use(loggingMiddleware(rt.Log), mux.CORSMethodMiddleware(r), corsMiddleware(rt.Origins))
	return r
}

func (rt Router) health(w http.ResponseWriter, _ *http.Request) {
	now := time.Now
	if rt.Now != nil {
		now = rt.Now
	}
	writeJSON(w, http.StatusOK, struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}{Status: "ok", Timestamp: now().UTC()})
}
