package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/scythe504/gyeongdo-backend/internal"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/", s.HelloWorldHandler)
	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	r.HandleFunc("/rooms", s.listRoomsHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms-available", s.GetRoomToJoin).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomId}", s.roomHandler).Methods(http.MethodGet)
	r.HandleFunc("/results", s.resultsHandler).Methods(http.MethodGet)

	if s.ws != nil {
		r.Handle("/ws", s.ws)
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS Headers
		w.Header().Set("Access-Control-Allow-Origin", "*") // Wildcard allows all origins
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false") // Credentials not allowed with wildcard origins

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := map[string]string{"status": "up"}
	if s.db != nil {
		stats = s.db.Health()
	}
	stats["rooms"] = strconv.Itoa(s.rooms.Len())

	code := http.StatusOK
	if stats["status"] != "up" {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, stats)
}

func (s *Server) listRoomsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()
	s.respond(w, start, http.StatusOK, s.rooms.List())
}

// GetRoomToJoin returns the first room still waiting for players.
func (s *Server) GetRoomToJoin(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()
	for _, summary := range s.rooms.List() {
		if summary.Status == internal.PhaseWaiting {
			s.respond(w, start, http.StatusOK, summary.RoomID)
			return
		}
	}
	s.respond(w, start, http.StatusNotFound, "No joinable rooms available")
}

type roomDetail struct {
	internal.RoomSnapshot
	Online []string `json:"online,omitempty"`
}

func (s *Server) roomHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()
	roomID := mux.Vars(r)["roomId"]

	room, ok := s.rooms.Get(roomID)
	if !ok {
		s.respond(w, start, http.StatusNotFound, "room not found")
		return
	}

	detail := roomDetail{RoomSnapshot: room.Snapshot()}
	if s.presence != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		online, err := s.presence.Online(ctx, roomID)
		if err != nil {
			s.log.Warn("[roomHandler] presence lookup failed", zap.String("room_id", roomID), zap.Error(err))
		} else {
			detail.Online = online
		}
	}
	s.respond(w, start, http.StatusOK, detail)
}

func (s *Server) resultsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()
	if s.db == nil {
		s.respond(w, start, http.StatusServiceUnavailable, "results archive is not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := s.db.RecentResults(r.Context(), limit)
	if err != nil {
		s.log.Error("[resultsHandler] query failed", zap.Error(err))
		s.respond(w, start, http.StatusInternalServerError, "internal error")
		return
	}
	s.respond(w, start, http.StatusOK, results)
}

// respond wraps data in the timed Response envelope.
func (s *Server) respond(w http.ResponseWriter, start int64, status int, data any) {
	end := time.Now().UnixMilli()
	s.writeJSON(w, status, internal.Response{
		StatusCode:    status,
		RespStartTime: start,
		RespEndTime:   end,
		NetRespTime:   end - start,
		Data:          data,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("[writeJSON] encode failed", zap.Error(err))
	}
}
