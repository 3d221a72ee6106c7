package serve

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonwraymond/probeops/batch"
	"github.com/jonwraymond/probeops/check"
	"github.com/jonwraymond/probeops/observe"
)

// batchRequest is the submission body for POST /v1/batches. Zero-valued
// knobs fall back to the server defaults.
type batchRequest struct {
	Requests               []requestItem `json:"requests"`
	MaxWorkers             int           `json:"max_workers,omitempty"`
	BatchSize              int           `json:"batch_size,omitempty"`
	PerCheckTimeoutSeconds float64       `json:"per_check_timeout_seconds,omitempty"`
	BatchTimeoutSeconds    float64       `json:"batch_timeout_seconds,omitempty"`
}

type requestItem struct {
	Identity string         `json:"identity,omitempty"`
	Type     string         `json:"check_type"`
	Config   map[string]any `json:"config,omitempty"`
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListChecks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"check_types": s.registry.Types()})
}

func (s *Server) handleRunBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decoding request: %v", err))
		return
	}
	if len(req.Requests) == 0 {
		writeError(w, http.StatusBadRequest, "no requests submitted")
		return
	}
	if len(req.Requests) > s.config.MaxBatchSize {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("batch of %d exceeds limit of %d", len(req.Requests), s.config.MaxBatchSize))
		return
	}

	config := s.runnerConfig(req)
	runner, err := batch.NewRunner(s.registry, config)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requests := make([]check.Request, len(req.Requests))
	for i, item := range req.Requests {
		requests[i] = check.Request{
			ID:     item.Identity,
			Type:   item.Type,
			Config: item.Config,
		}
	}

	startedAt := time.Now()
	res, err := runner.Run(r.Context(), requests)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.record(r, startedAt, res)
	writeJSON(w, http.StatusOK, res.Report())
}

// runnerConfig overlays per-request knobs on the server defaults.
func (s *Server) runnerConfig(req batchRequest) batch.RunnerConfig {
	config := s.config.Defaults
	if req.MaxWorkers != 0 {
		config.MaxWorkers = req.MaxWorkers
	}
	if req.BatchSize != 0 {
		config.ChunkSize = req.BatchSize
	}
	if req.PerCheckTimeoutSeconds != 0 {
		config.PerCheckTimeout = secondsToDuration(req.PerCheckTimeoutSeconds)
	}
	if req.BatchTimeoutSeconds != 0 {
		config.BatchTimeout = secondsToDuration(req.BatchTimeoutSeconds)
	}
	return config
}

// record persists and publishes a finished batch best-effort; failures
// are logged, never surfaced to the submitter.
func (s *Server) record(r *http.Request, startedAt time.Time, res *batch.Result) {
	ctx := r.Context()
	if s.store != nil {
		if err := s.store.SaveBatch(ctx, startedAt, res); err != nil {
			s.logger.Warn(ctx, "persisting batch failed",
				observe.Field{Key: "batch.id", Value: res.BatchID},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, res); err != nil {
			s.logger.Warn(ctx, "publishing batch failed",
				observe.Field{Key: "batch.id", Value: res.BatchID},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
