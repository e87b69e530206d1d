package engine

import (
	"fmt"
	"regexp"
	"sort"
	"sync/atomic"

	ir "github.com/PhucNguyen204/REX_V2/engine_regex_by_golang"
	"github.com/PhucNguyen204/REX_V2/engine_regex_by_golang/compiler"
	"github.com/PhucNguyen204/REX_V2/engine_regex_by_golang/scanner"
	"github.com/PhucNguyen204/REX_V2/engine_regex_by_golang/tree"
)

// PatternSpec is one user-supplied regular expression.
type PatternSpec struct {
	ID              string `json:"id" yaml:"id"`
	Expr            string `json:"expr" yaml:"expr"`
	Description     string `json:"description,omitempty" yaml:"description"`
	CaseInsensitive bool   `json:"case_insensitive,omitempty" yaml:"case_insensitive"`
}

func (p PatternSpec) effectiveExpr() string {
	if p.CaseInsensitive {
		return "(?i)" + p.Expr
	}
	return p.Expr
}

// Engine ties the predicate compiler, the propagation tree, the atom
// scanner and the authoritative matcher together. Compile once, query from
// any number of goroutines.
type Engine struct {
	cfg   ir.EngineConfig
	specs []PatternSpec

	// index == RegexpId
	regexps []*regexp.Regexp

	// nil when the prefilter is disabled
	tree *tree.Tree
	scan *scanner.Scanner

	candidatesTotal atomic.Int64
	verifiedTotal   atomic.Int64
}

// Compile builds an engine over the given pattern set.
func Compile(specs []PatternSpec, cfg ir.EngineConfig) (*Engine, error) {
	e := &Engine{
		cfg:     cfg,
		specs:   append([]PatternSpec(nil), specs...),
		regexps: make([]*regexp.Regexp, 0, len(specs)),
	}

	for i, sp := range specs {
		re, err := regexp.Compile(sp.effectiveExpr())
		if err != nil {
			return nil, fmt.Errorf("CompilationError: pattern %d (%q): %w", i, sp.Expr, err)
		}
		e.regexps = append(e.regexps, re)
	}

	if !cfg.EnablePrefilter {
		return e, nil
	}

	c := compiler.NewWithConfig(cfg)
	b := tree.NewBuilder().WithPruneFanout(cfg.PruneFanout)
	for i, sp := range specs {
		pred, err := c.CompilePattern(sp.effectiveExpr())
		if err != nil {
			return nil, err
		}
		if err := b.Add(ir.RegexpId(i), pred); err != nil {
			return nil, fmt.Errorf("CompilationError: pattern %d (%q): %w", i, sp.Expr, err)
		}
	}
	t, err := b.Build()
	if err != nil {
		return nil, err
	}
	e.tree = t
	e.scan = scanner.New(t.Atoms())
	return e, nil
}

// Candidates runs only the prefilter: the regexp IDs that can possibly
// match text. Superset of Match; no false negatives.
func (e *Engine) Candidates(text string) []ir.RegexpId {
	if e.tree == nil {
		all := make([]ir.RegexpId, len(e.regexps))
		for i := range all {
			all[i] = ir.RegexpId(i)
		}
		return all
	}
	out := e.tree.PropagateMatch(e.scan.AtomsIn(text))
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MatchWithCandidates runs the prefilter once and verifies the resulting
// candidates with their compiled regexps, returning both sets. Callers
// that need the candidate set alongside the matches use this instead of
// Candidates followed by Match, which would scan and propagate twice.
func (e *Engine) MatchWithCandidates(text string) (candidates, matched []ir.RegexpId) {
	cands := e.Candidates(text)
	e.candidatesTotal.Add(int64(len(cands)))

	out := make([]ir.RegexpId, 0, len(cands))
	for _, id := range cands {
		if e.regexps[id].MatchString(text) {
			out = append(out, id)
		}
	}
	e.verifiedTotal.Add(int64(len(out)))
	return cands, out
}

// Match returns the IDs of patterns that actually match text, verifying
// every prefilter candidate with its compiled regexp.
func (e *Engine) Match(text string) []ir.RegexpId {
	_, matched := e.MatchWithCandidates(text)
	return matched
}

func (e *Engine) PatternCount() int { return len(e.regexps) }

func (e *Engine) AtomCount() int {
	if e.tree == nil {
		return 0
	}
	return e.tree.AtomCount()
}

func (e *Engine) NodeCount() int {
	if e.tree == nil {
		return 0
	}
	return e.tree.NodeCount()
}

func (e *Engine) HasPrefilter() bool { return e.tree != nil }

// Spec returns the pattern metadata for a regexp ID.
func (e *Engine) Spec(id ir.RegexpId) (PatternSpec, bool) {
	if int(id) >= len(e.specs) {
		return PatternSpec{}, false
	}
	return e.specs[id], true
}

// Stats: (prefilter candidates produced, candidates that verified).
func (e *Engine) Stats() (candidates, verified int64) {
	return e.candidatesTotal.Load(), e.verifiedTotal.Load()
}

func (e *Engine) ScannerStats() scanner.Stats {
	if e.scan == nil {
		return scanner.Stats{EstimatedSelectivity: 1.0}
	}
	return e.scan.Stats()
}

func (e *Engine) TreeStatistics() tree.TreeStatistics {
	if e.tree == nil {
		return tree.TreeStatistics{}
	}
	return e.tree.Statistics()
}

// DebugTree renders the propagation tree for diagnostics.
func (e *Engine) DebugTree() string {
	if e.tree == nil {
		return "prefilter disabled\n"
	}
	return e.tree.DebugString()
}
