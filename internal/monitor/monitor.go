// Package monitor exposes a running player over HTTP.
package monitor

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"pong-actor-critic/internal/report"
)

// Status is the shared view of a run. The decision loop records into it
// and HTTP handlers read from it.
type Status struct {
	mu      sync.RWMutex
	started time.Time
	samples []report.Sample
	weights [][]float64
	dropped int
}

func NewStatus() *Status {
	return &Status{started: time.Now()}
}

// Record appends a boundary sample.
func (s *Status) Record(sample report.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
}

// SetWeights replaces the published readout rows with a copy of rows.
func (s *Status) SetWeights(rows [][]float64) {
	cp := make([][]float64, len(rows))
	for i, r := range rows {
		cp[i] = append([]float64(nil), r...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weights = cp
}

// SetDropped records how many rewards the adapter has dropped.
func (s *Status) SetDropped(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped = n
}

// Samples returns a copy of everything recorded so far.
func (s *Status) Samples() []report.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]report.Sample(nil), s.samples...)
}

func (s *Status) snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload := map[string]any{
		"periods":         len(s.samples),
		"uptime_sec":      time.Since(s.started).Seconds(),
		"dropped_rewards": s.dropped,
	}
	if n := len(s.samples); n > 0 {
		last := s.samples[n-1]
		payload["last"] = last
		payload["hits"] = last.Hits
		payload["misses"] = last.Misses
	}
	return payload
}

// RewardQueue is the adapter's reward queue as the monitor sees it.
type RewardQueue interface {
	RewardQueue(player int) (size, capacity int, policy string)
	SetRewardPolicy(policy string) error
}

// Server exposes a run over HTTP. Config and Queue are optional.
type Server struct {
	Status *Status
	Config any
	Queue  RewardQueue
	// Side is the player whose reward queue is reported.
	Side int
}

// Handler serves /healthz, /stats, /weights and /config. POST /config
// with {"policy": "drop"|"overwrite"} switches the reward queue policy.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		payload := s.Status.snapshot()
		if s.Queue != nil {
			size, capacity, policy := s.Queue.RewardQueue(s.Side)
			payload["queue_length"] = size
			payload["capacity"] = capacity
			payload["policy"] = policy
		}
		writeJSON(w, payload)
	})
	mux.HandleFunc("/weights", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.Status.mu.RLock()
		rows := s.Status.weights
		s.Status.mu.RUnlock()
		if rows == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, map[string]any{"rows": rows})
	})
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			payload := map[string]any{"config": s.Config}
			if s.Queue != nil {
				_, capacity, policy := s.Queue.RewardQueue(s.Side)
				payload["policy"] = policy
				payload["capacity"] = capacity
			}
			writeJSON(w, payload)
		case http.MethodPost:
			if s.Queue == nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if value, ok := payload["policy"]; ok {
				policy, ok := value.(string)
				if !ok {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				if err := s.Queue.SetRewardPolicy(policy); err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				log.Printf("reward queue policy set to %s", policy)
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	return mux
}

// writeJSON encodes payload in full before writing the response.
func writeJSON(w http.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("monitor: encode response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(append(data, '\n'))
}

// Listen wraps Handler in a server for port.
func (s *Server) Listen(port string) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
