package scanner

import (
	ac "github.com/petar-dambovaliev/aho-corasick"

	ir "github.com/PhucNguyen204/REX_V2/engine_regex_by_golang"
)

// Scanner finds which atoms of the prefilter tree occur in a candidate
// text. Atom IDs follow the tree's atom table order. Built once per
// compiled pattern set; safe for concurrent use.
type Scanner struct {
	// nil when the atom table is empty
	ac    *ac.AhoCorasick
	atoms []string
	stats Stats
}

// -------------------- Statistics --------------------

type Stats struct {
	AtomCount int `json:"atom_count"`
	// Estimated fraction of arbitrary inputs that trigger at least one atom
	// (0.0 = very selective, 1.0 = matches everything)
	EstimatedSelectivity float64 `json:"estimated_selectivity"`
	// Rough automaton footprint
	MemoryUsage int `json:"memory_usage"`
}

func (s Stats) IsEffective() bool {
	return s.AtomCount >= 5 && s.EstimatedSelectivity < 0.7
}

// -------------------- Construction --------------------

// New builds the atom automaton. Atoms arrive ASCII-lowercased from the
// predicate compiler, non-ASCII runes byte-exact; matching is ASCII
// case-insensitive so the original text can be scanned as-is, and
// non-ASCII bytes must match verbatim. Standard match semantics so overlapping atom
// occurrences are all reported; missing one would let an And threshold
// starve and drop a true candidate.
func New(atoms []string) *Scanner {
	var automaton *ac.AhoCorasick
	if len(atoms) > 0 {
		builder := ac.NewAhoCorasickBuilder(ac.Opts{
			AsciiCaseInsensitive: true,
			MatchKind:            ac.StandardMatch,
		})
		built := builder.Build(atoms)
		automaton = &built
	}
	return &Scanner{
		ac:    automaton,
		atoms: append([]string(nil), atoms...),
		stats: Stats{
			AtomCount:            len(atoms),
			EstimatedSelectivity: estimateSelectivity(len(atoms)),
			MemoryUsage:          estimateMemoryUsage(len(atoms)),
		},
	}
}

func (s *Scanner) AtomCount() int { return len(s.atoms) }
func (s *Scanner) Stats() Stats   { return s.stats }

// -------------------- Scanning --------------------

// AtomsIn returns the deduplicated set of atom IDs occurring in text.
func (s *Scanner) AtomsIn(text string) []ir.AtomId {
	if s.ac == nil {
		return nil
	}
	seen := make([]bool, len(s.atoms))
	out := make([]ir.AtomId, 0, 8)
	it := s.ac.IterOverlapping(text)
	for m := it.Next(); m != nil; m = it.Next() {
		pid := m.Pattern()
		if pid < 0 || pid >= len(seen) || seen[pid] {
			continue
		}
		seen[pid] = true
		out = append(out, ir.AtomId(pid))
		if len(out) == len(s.atoms) {
			break
		}
	}
	return out
}

// HasAny is the fast boolean gate: does any atom occur at all.
func (s *Scanner) HasAny(text string) bool {
	if s.ac == nil {
		return false
	}
	it := s.ac.IterOverlapping(text)
	return it.Next() != nil
}

// -------------------- Heuristics --------------------

func estimateSelectivity(atomCount int) float64 {
	switch {
	case atomCount == 0:
		return 1.0
	case atomCount >= 50:
		return 0.05
	case atomCount >= 20:
		return 0.10
	case atomCount >= 10:
		return 0.20
	case atomCount >= 5:
		return 0.40
	default:
		return 0.70
	}
}

func estimateMemoryUsage(atomCount int) int {
	stateCount := atomCount * 2
	transitionOverhead := stateCount * 256
	stateOverhead := stateCount * 32
	atomOverhead := atomCount * 20
	return atomOverhead + transitionOverhead + stateOverhead
}
