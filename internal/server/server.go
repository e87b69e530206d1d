package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	ir "github.com/PhucNguyen204/REX_V2/engine_regex_by_golang"
	"github.com/PhucNguyen204/REX_V2/pkg/engine"
)

type AppServer struct {
	db     *sql.DB
	log    zerolog.Logger
	cfg    ir.EngineConfig // used whenever a pattern set is recompiled
	mu     sync.RWMutex    // protects engine swap
	engine *engine.Engine
}

func NewAppServer(db *sql.DB, eng *engine.Engine, log zerolog.Logger) *AppServer {
	return &AppServer{db: db, engine: eng, log: log, cfg: ir.DefaultEngineConfig()}
}

// WithEngineConfig sets the configuration applied to every engine rebuild
// (pattern replacement over HTTP, directory reload).
func (s *AppServer) WithEngineConfig(cfg ir.EngineConfig) *AppServer {
	s.cfg = cfg
	return s
}

// RegisterRoutes wires HTTP handlers.
func (s *AppServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/patterns", s.handlePatterns)
	mux.HandleFunc("/api/v1/match", s.handleMatch)
	mux.HandleFunc("/api/v1/matches", s.handleListMatches)
	mux.HandleFunc("/api/v1/debug/tree", s.handleDebugTree)
}

func (s *AppServer) currentEngine() *engine.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

func (s *AppServer) swapEngine(e *engine.Engine) {
	s.mu.Lock()
	s.engine = e
	s.mu.Unlock()
}

// ---- Handlers ----

func (s *AppServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *AppServer) handleStats(w http.ResponseWriter, r *http.Request) {
	type statsResp struct {
		PatternCount    int     `json:"pattern_count"`
		AtomCount       int     `json:"atom_count"`
		NodeCount       int     `json:"node_count"`
		Candidates      int64   `json:"candidates_total"`
		Verified        int64   `json:"verified_total"`
		Selectivity     float64 `json:"estimated_selectivity"`
		PrefilterActive bool    `json:"prefilter_active"`
	}
	eng := s.currentEngine()
	cands, verified := eng.Stats()
	resp := statsResp{
		PatternCount:    eng.PatternCount(),
		AtomCount:       eng.AtomCount(),
		NodeCount:       eng.NodeCount(),
		Candidates:      cands,
		Verified:        verified,
		Selectivity:     eng.ScannerStats().EstimatedSelectivity,
		PrefilterActive: eng.HasPrefilter(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePatterns supports GET (current counts) and POST (replace the set).
// POST body: { "patterns": [ {"id": "...", "expr": "...", ...} ] }
func (s *AppServer) handlePatterns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		eng := s.currentEngine()
		writeJSON(w, http.StatusOK, map[string]any{
			"patterns": eng.PatternCount(),
			"atoms":    eng.AtomCount(),
			"nodes":    eng.NodeCount(),
		})
	case http.MethodPost:
		var req struct {
			Patterns []engine.PatternSpec `json:"patterns"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		newEngine, err := engine.Compile(req.Patterns, s.cfg)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		if s.db != nil {
			if err := s.UpsertPatterns(r.Context(), req.Patterns); err != nil {
				writeErr(w, http.StatusInternalServerError, err)
				return
			}
		}
		s.swapEngine(newEngine)
		s.log.Info().
			Int("patterns", newEngine.PatternCount()).
			Int("atoms", newEngine.AtomCount()).
			Int("nodes", newEngine.NodeCount()).
			Msg("pattern set replaced")
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "patterns": newEngine.PatternCount()})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleMatch runs one text through prefilter and verification.
// POST body: { "text": "..." }
func (s *AppServer) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	eng := s.currentEngine()
	cands, matched := eng.MatchWithCandidates(req.Text)

	matchedIDs := make([]string, 0, len(matched))
	for _, id := range matched {
		if sp, ok := eng.Spec(id); ok {
			matchedIDs = append(matchedIDs, sp.ID)
		}
	}
	if len(matched) > 0 {
		s.log.Info().
			Strs("patterns", matchedIDs).
			Int("candidates", len(cands)).
			Msg("match")
	}
	if s.db != nil {
		if err := s.InsertMatchLog(r.Context(), len(req.Text), len(cands), matchedIDs); err != nil {
			s.log.Error().Err(err).Msg("insert match log")
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"candidates":  cands,
		"matched":     matched,
		"pattern_ids": matchedIDs,
	})
}

func (s *AppServer) handleDebugTree(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.currentEngine().DebugTree()))
}

// ---- Helpers ----

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}
