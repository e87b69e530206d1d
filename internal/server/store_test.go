package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"

	ir "github.com/PhucNguyen204/REX_V2/engine_regex_by_golang"
	"github.com/PhucNguyen204/REX_V2/pkg/engine"
)

func newMockServer(t *testing.T) (*AppServer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	eng, err := engine.Compile(nil, ir.DefaultEngineConfig())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return NewAppServer(db, eng, zerolog.Nop()), mock
}

func TestUpsertPatterns(t *testing.T) {
	s, mock := newMockServer(t)

	specs := []engine.PatternSpec{
		{ID: "a", Expr: "foo"},
		{ID: "b", Expr: "bar", CaseInsensitive: true},
	}
	for range specs {
		mock.ExpectExec("INSERT INTO patterns").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	if err := s.UpsertPatterns(context.Background(), specs); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertMatchLog(t *testing.T) {
	s, mock := newMockServer(t)

	mock.ExpectExec("INSERT INTO match_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.InsertMatchLog(context.Background(), 42, 3, []string{"a", "b"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListMatches(t *testing.T) {
	s, mock := newMockServer(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "occurred_at", "text_len", "candidate_count", "match_count", "matched_ids"}).
		AddRow(int64(2), now, 20, 2, 1, `["a"]`).
		AddRow(int64(1), now, 10, 0, 0, `[]`)
	mock.ExpectQuery("SELECT id, occurred_at").
		WillReturnRows(rows)

	req := httptest.NewRequest("GET", "/api/v1/matches?limit=2", nil)
	rec := httptest.NewRecorder()
	s.handleListMatches(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var out []struct {
		ID         int64           `json:"id"`
		MatchCount int             `json:"match_count"`
		MatchedIDs json.RawMessage `json:"matched_ids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].ID != 2 || out[0].MatchCount != 1 {
		t.Fatalf("unexpected rows: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListMatches_QueryError(t *testing.T) {
	s, mock := newMockServer(t)

	mock.ExpectQuery("SELECT id, occurred_at").
		WillReturnError(context.DeadlineExceeded)

	req := httptest.NewRequest("GET", "/api/v1/matches", nil)
	rec := httptest.NewRecorder()
	s.handleListMatches(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
}
