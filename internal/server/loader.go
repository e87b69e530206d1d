package server

import (
	"context"
	"fmt"
	"regexp"

	"github.com/PhucNguyen204/REX_V2/internal/patterns"
	"github.com/PhucNguyen204/REX_V2/pkg/engine"
)

// LoadPatternsFromDir walks a directory recursively, parses all .yml/.yaml files
// into a single pattern set, compiles a new engine, and swaps it.
// Returns (loaded_count, skipped_count, error).
func (s *AppServer) LoadPatternsFromDir(ctx context.Context, dir string) (int, int, error) {
	files, err := patterns.LoadDirRecursive(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("walk dir: %w", err)
	}

	all := patterns.Flatten(files)
	kept := make([]engine.PatternSpec, 0, len(all))
	skipped := 0
	for _, sp := range all {
		expr := sp.Expr
		if sp.CaseInsensitive {
			expr = "(?i)" + expr
		}
		if _, rerr := regexp.Compile(expr); rerr != nil {
			// Skip unparseable patterns but keep going
			skipped++
			continue
		}
		kept = append(kept, sp)
	}

	if err := s.UpsertPatterns(ctx, kept); err != nil {
		return len(kept), skipped, fmt.Errorf("upsert patterns: %w", err)
	}
	newEngine, err := engine.Compile(kept, s.cfg)
	if err != nil {
		return len(kept), skipped, err
	}
	s.swapEngine(newEngine)
	s.log.Info().
		Int("patterns", newEngine.PatternCount()).
		Int("atoms", newEngine.AtomCount()).
		Int("nodes", newEngine.NodeCount()).
		Bool("prefilter", newEngine.HasPrefilter()).
		Msg("patterns loaded into engine")
	return len(kept), skipped, nil
}
