package tree

import (
	"fmt"
	"sync"
	"unsafe"

	ir "github.com/PhucNguyen204/REX_V2/engine_regex_by_golang"
)

// ---------- ID ----------
type NodeId = uint32

// ---------- Entry ----------

// Entry is one canonical predicate node in the shared propagation DAG.
// Entries are created once by the Builder and are immutable afterwards;
// per-query trigger state lives in triggerState, never here.
type Entry struct {
	ID NodeId

	// Parents maps parent entry ID to a trigger weight. The weight is always
	// 1; the map is semantically a set of distinct parent IDs. Duplicate
	// insertion is skipped so a child shared by several operand slots of the
	// same And never double-counts.
	Parents map[NodeId]int

	// Number of distinct children that must fire before this entry fires.
	// And: distinct child count. Or and atoms: 1.
	PropagateUpAtCount int

	// Regexps whose root predicate canonicalized to exactly this entry.
	Regexps []ir.RegexpId
}

// ---------- Tree ----------

// Tree is the compiled prefilter propagation structure: a DAG of canonical
// Entries addressed by dense index, plus the atom table handed to the
// literal scanner. Built once, then safe for concurrent PropagateMatch
// calls from any number of goroutines.
type Tree struct {
	entries []Entry

	// Atom table; index is the AtomId reported by the scanner.
	atoms     []string
	atomEntry []NodeId // AtomId -> entry unique id

	// Regexps guarded by the constant-true predicate. They are candidates
	// for every input, including the empty atom set.
	unconditional []ir.RegexpId

	regexpCount int

	statePool sync.Pool // *triggerState
}

func (t *Tree) NodeCount() int   { return len(t.entries) }
func (t *Tree) AtomCount() int   { return len(t.atoms) }
func (t *Tree) RegexpCount() int { return t.regexpCount }

// Atoms returns the ordered atom table. The slice is shared; callers must
// not mutate it.
func (t *Tree) Atoms() []string { return t.atoms }

// Unconditional returns the regexp IDs that are candidates regardless of
// which atoms are present.
func (t *Tree) Unconditional() []ir.RegexpId {
	return append([]ir.RegexpId(nil), t.unconditional...)
}

func (t *Tree) GetEntry(id NodeId) (*Entry, bool) {
	idx := int(id)
	if idx < 0 || idx >= len(t.entries) {
		return nil, false
	}
	return &t.entries[idx], true
}

func (t *Tree) Validate() error {
	for i := range t.entries {
		e := &t.entries[i]
		if e.PropagateUpAtCount < 1 {
			return fmt.Errorf("BuildError: entry %d has threshold %d", e.ID, e.PropagateUpAtCount)
		}
		for pid := range e.Parents {
			if int(pid) >= len(t.entries) {
				return fmt.Errorf("BuildError: invalid parent link: %d -> %d", e.ID, pid)
			}
		}
	}
	for aid, nid := range t.atomEntry {
		if int(nid) >= len(t.entries) {
			return fmt.Errorf("BuildError: atom %d maps to invalid entry %d", aid, nid)
		}
	}
	return nil
}

func (t *Tree) Statistics() TreeStatistics {
	return TreeStatisticsFromTree(t)
}

// ---------- TreeStatistics ----------

type TreeStatistics struct {
	TotalEntries         int
	AtomEntries          int
	InnerEntries         int
	Edges                int
	MaxFanIn             int
	UnconditionalRegexps int
	EstimatedMemoryBytes int
}

func TreeStatisticsFromTree(t *Tree) TreeStatistics {
	edges := 0
	maxFanIn := 0
	for i := range t.entries {
		n := len(t.entries[i].Parents)
		edges += n
		if n > maxFanIn {
			maxFanIn = n
		}
	}

	estimated := len(t.entries)*int(unsafe.Sizeof(Entry{})) +
		edges*(int(unsafe.Sizeof(NodeId(0)))+int(unsafe.Sizeof(int(0)))) +
		len(t.atomEntry)*int(unsafe.Sizeof(NodeId(0)))
	for _, a := range t.atoms {
		estimated += len(a)
	}

	return TreeStatistics{
		TotalEntries:         len(t.entries),
		AtomEntries:          len(t.atomEntry),
		InnerEntries:         len(t.entries) - len(t.atomEntry),
		Edges:                edges,
		MaxFanIn:             maxFanIn,
		UnconditionalRegexps: len(t.unconditional),
		EstimatedMemoryBytes: estimated,
	}
}
