package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/PhucNguyen204/REX_V2/pkg/engine"
)

// ---- Persistence ----

func (s *AppServer) UpsertPatterns(ctx context.Context, specs []engine.PatternSpec) error {
	for _, sp := range specs {
		if _, err := s.db.ExecContext(ctx, `INSERT INTO patterns(pattern_id, expr, description, case_insensitive, updated_at)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (pattern_id) DO UPDATE SET expr=EXCLUDED.expr, description=EXCLUDED.description, case_insensitive=EXCLUDED.case_insensitive, updated_at=EXCLUDED.updated_at`,
			sp.ID, sp.Expr, sp.Description, sp.CaseInsensitive, time.Now().UTC(),
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *AppServer) InsertMatchLog(ctx context.Context, textLen, candidateCount int, matchedIDs []string) error {
	b, _ := json.Marshal(matchedIDs)
	_, err := s.db.ExecContext(ctx, `INSERT INTO match_log(occurred_at, text_len, candidate_count, match_count, matched_ids)
		VALUES ($1,$2,$3,$4,$5)`,
		time.Now().UTC(), textLen, candidateCount, len(matchedIDs), string(b))
	return err
}

func (s *AppServer) handleListMatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 200
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	rows, err := s.db.QueryContext(r.Context(), `SELECT id, occurred_at, text_len, candidate_count, match_count, matched_ids FROM match_log ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	type rec struct {
		ID             int64           `json:"id"`
		OccurredAt     time.Time       `json:"occurred_at"`
		TextLen        int             `json:"text_len"`
		CandidateCount int             `json:"candidate_count"`
		MatchCount     int             `json:"match_count"`
		MatchedIDs     json.RawMessage `json:"matched_ids"`
	}
	out := []rec{}
	for rows.Next() {
		var m rec
		var ids string
		if err := rows.Scan(&m.ID, &m.OccurredAt, &m.TextLen, &m.CandidateCount, &m.MatchCount, &ids); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		m.MatchedIDs = json.RawMessage(ids)
		out = append(out, m)
	}
	writeJSON(w, http.StatusOK, out)
}
