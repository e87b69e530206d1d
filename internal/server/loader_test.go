package server

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	ir "github.com/PhucNguyen204/REX_V2/engine_regex_by_golang"
)

func TestLoadPatternsFromDir(t *testing.T) {
	s, mock := newMockServer(t)

	// 7 valid patterns across the testdata set, upserted one by one
	for i := 0; i < 7; i++ {
		mock.ExpectExec("INSERT INTO patterns").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	loaded, skipped, err := s.LoadPatternsFromDir(context.Background(), "../../testdata/patterns")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != 7 || skipped != 0 {
		t.Fatalf("loaded=%d skipped=%d", loaded, skipped)
	}
	if got := s.currentEngine().PatternCount(); got != 7 {
		t.Fatalf("engine pattern count = %d", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoadPatternsFromDirHonorsEngineConfig(t *testing.T) {
	s, mock := newMockServer(t)
	s.WithEngineConfig(ir.DisabledPrefilterConfig())

	for i := 0; i < 7; i++ {
		mock.ExpectExec("INSERT INTO patterns").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	if _, _, err := s.LoadPatternsFromDir(context.Background(), "../../testdata/patterns"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.currentEngine().HasPrefilter() {
		t.Fatal("reload must honor the server's engine config, not the defaults")
	}
}

func TestLoadPatternsFromDir_MissingDir(t *testing.T) {
	s, _ := newMockServer(t)
	if _, _, err := s.LoadPatternsFromDir(context.Background(), "does-not-exist"); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
