package rest

import (
	"encoding/json"
	"net/http"
	"time"
)

const healthMessage = "Arcade relay is running"

type healthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type pingHandler struct {
	now func() time.Time
}

func newPingHandler() *pingHandler {
	return &pingHandler{now: time.Now}
}

func (that *pingHandler) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// HealthHandler - liveness check with a timestamp.
func (that *pingHandler) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:    "OK",
		Message:   healthMessage,
		Timestamp: that.now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
