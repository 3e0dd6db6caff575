package api

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	Database string `json:"database"`
	Stream   string `json:"stream"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "disabled"
	if s.db != nil {
		dbStatus = "connected"
		if err := s.db.Ping(r.Context()); err != nil {
			dbStatus = "disconnected"
		}
	}

	stream := "disabled"
	if s.hub != nil {
		stream = "enabled"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  healthServices{Database: dbStatus, Stream: stream},
	})
}
