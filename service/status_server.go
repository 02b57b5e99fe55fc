package service

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/testops/spec-harness/types"
)

// StatusServer exposes the state of the current and most recent run over
// HTTP. Dashboards poll /status; /status/results returns the full record
// list of the last completed run.
type StatusServer struct {
	tracker *RunTracker
	server  *http.Server
}

func NewStatusServer(tracker *RunTracker) *StatusServer {
	return &StatusServer{
		tracker: tracker,
	}
}

func (s *StatusServer) Start(addr string) error {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	})
	server := &http.Server{
		Handler: c.Handler(s.Handler()),
		Addr:    addr,
	}
	s.server = server
	return s.server.ListenAndServe()
}

func (s *StatusServer) Shutdown() error {
	if s.server == nil {
		return nil
	}
	return s.server.Close()
}

// Handler returns the route handler, for tests and embedding.
func (s *StatusServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/status/results", s.handleResults).Methods(http.MethodGet)
	return r
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.tracker.Snapshot())
}

type resultsResponse struct {
	RunID   string              `json:"runId"`
	Outcome string              `json:"outcome,omitempty"`
	Results []*types.TestResult `json:"results"`
}

func (s *StatusServer) handleResults(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	if snap.State != RunStateCompleted {
		http.Error(w, "no completed run", http.StatusNotFound)
		return
	}

	results := s.tracker.Results()
	if results == nil {
		results = []*types.TestResult{}
	}
	writeJSON(w, resultsResponse{
		RunID:   snap.RunID,
		Outcome: snap.Outcome,
		Results: results,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error("failed to marshal status response", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(data); err != nil {
		log.Error("failed to write status response", "error", err)
	}
}
