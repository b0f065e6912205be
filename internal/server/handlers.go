package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/council"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/gateway"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/llm"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/router"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/stream"
)

type chatRequest struct {
	// Model is a logical model identifier; ignored when Auto is set.
	Model string `json:"model"`
	// Auto routes via the classifier instead of an explicit model.
	Auto     bool          `json:"auto"`
	Messages []llm.Message `json:"messages"`
}

type councilRequest struct {
	Question string `json:"question"`
	// Mode is "all" (default) or "single".
	Mode            string `json:"mode"`
	OriginalBackend string `json:"original_backend,omitempty"`
	OriginalContent string `json:"original_content,omitempty"`
}

type routeRequest struct {
	Query string `json:"query"`
}

type routeResponse struct {
	Model   string   `json:"model"`
	Route   string   `json:"route"`
	Score   int      `json:"score"`
	Signals []string `json:"signals"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleChatStream runs the single-model wind tunnel path: one dispatch,
// tokens streamed back as NDJSON as they arrive, one terminal event.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}

	modelID := req.Model
	if req.Auto {
		decision := router.Classify(req.Messages[len(req.Messages)-1].Content)
		modelID = decision.ModelID
		s.log.Info().Str("route", decision.Route.String()).Int("score", decision.Score).Str("model", modelID).Msg("auto-routed")
	}
	if modelID == "" {
		writeError(w, http.StatusBadRequest, "model is required unless auto is set")
		return
	}

	mapping, err := gateway.Resolve(modelID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages, trimmed := llm.Trim(req.Messages, s.cfg.Budget.ContextTokens)
	if trimmed {
		s.log.Debug().Int("kept", len(messages)).Msg("conversation trimmed to budget")
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	streamer := stream.NewStreamer(stream.NewNDJSONSink(w))
	s.runStream(r, streamer, mapping.AdapterKind, modelID, messages)
}

// runStream drives one dispatch into a streamer. Shared by the HTTP and
// WebSocket transports; the streamer is the sole writer for the request.
func (s *Server) runStream(r *http.Request, streamer *stream.Streamer, adapterKind, modelID string, messages []llm.Message) {
	result, err := s.gw.Dispatch(r.Context(), modelID, messages,
		gateway.WithMaxTokens(s.cfg.Budget.MaxResponseTokens),
		gateway.WithTimeout(time.Duration(s.cfg.Budget.DefaultTimeoutSec)*time.Second),
		gateway.WithOnDelta(func(delta string) { streamer.Token(delta) }),
	)
	if err != nil {
		streamer.Fail(err)
		return
	}
	cost := llm.Cost(adapterKind, result.InputTokens, result.OutputTokens)
	streamer.Complete(result, cost)
}

// handleCouncil runs the full blind peer-review flow.
func (s *Server) handleCouncil(w http.ResponseWriter, r *http.Request) {
	var req councilRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question must not be empty")
		return
	}

	var (
		outcome *council.Outcome
		err     error
	)
	switch req.Mode {
	case "single":
		if req.OriginalBackend == "" || req.OriginalContent == "" {
			writeError(w, http.StatusBadRequest, "single mode requires original_backend and original_content")
			return
		}
		outcome, err = s.engine.RankOriginal(r.Context(), req.Question, req.OriginalBackend, req.OriginalContent)
	case "", "all":
		messages := []llm.Message{{Role: "user", Content: req.Question}}
		results := s.orch.RunAll(r.Context(), s.cfg.Roster(), messages)
		for _, res := range results {
			if res.Failed() {
				writeJSON(w, http.StatusBadGateway, map[string]interface{}{
					"error":   "incomplete result set",
					"results": results,
				})
				return
			}
		}
		outcome, err = s.engine.RankAll(r.Context(), req.Question, results)
	default:
		writeError(w, http.StatusBadRequest, "mode must be 'single' or 'all'")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

// handleRoute exposes the classifier without dispatching anything.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	decision := router.Classify(req.Query)
	writeJSON(w, http.StatusOK, routeResponse{
		Model:   decision.ModelID,
		Route:   decision.Route.String(),
		Score:   decision.Score,
		Signals: decision.Signals,
	})
}

// handleStatus reports adapter availability and the supported model table.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	models := gateway.SupportedModels()
	sort.Strings(models)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"backends": s.gw.Available(),
		"models":   models,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
