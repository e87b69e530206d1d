package tree

import (
	ir "github.com/PhucNguyen204/REX_V2/engine_regex_by_golang"
)

// triggerState is the per-query mutable side of propagation. The shared
// Entries stay read-only so any number of queries can run concurrently;
// each query borrows a state from the tree's pool. Reset walks only the
// touched list, so clearing cost tracks the nodes a query actually
// reached, not the total node count.
type triggerState struct {
	counts  []int
	fired   []bool
	touched []NodeId
}

func newTriggerState(n int) *triggerState {
	return &triggerState{
		counts:  make([]int, n),
		fired:   make([]bool, n),
		touched: make([]NodeId, 0, 16),
	}
}

func (s *triggerState) touch(id NodeId) {
	if s.counts[id] == 0 && !s.fired[id] {
		s.touched = append(s.touched, id)
	}
}

func (s *triggerState) reset() {
	for _, id := range s.touched {
		s.counts[id] = 0
		s.fired[id] = false
	}
	s.touched = s.touched[:0]
}

// PropagateMatch computes the set of regexp IDs whose predicate is
// satisfied when exactly the given atoms are present in the input. The
// result is a superset of the regexps that can actually match; the caller
// re-verifies candidates with the full matcher. Unknown atom IDs and
// duplicates are tolerated. The returned order is unspecified.
func (t *Tree) PropagateMatch(atomIDs []ir.AtomId) []ir.RegexpId {
	out := make([]ir.RegexpId, 0, len(t.unconditional)+len(atomIDs))
	out = append(out, t.unconditional...)
	if len(atomIDs) == 0 || len(t.entries) == 0 {
		return out
	}

	st := t.statePool.Get().(*triggerState)
	defer func() {
		st.reset()
		t.statePool.Put(st)
	}()

	// Worklist of newly fired entries; explicit queue instead of recursion
	// so DAG depth never grows the stack.
	queue := make([]NodeId, 0, len(atomIDs))
	fire := func(id NodeId) {
		st.touch(id)
		st.fired[id] = true
		out = append(out, t.entries[id].Regexps...)
		queue = append(queue, id)
	}

	for _, aid := range atomIDs {
		if int(aid) >= len(t.atomEntry) {
			continue
		}
		nid := t.atomEntry[aid]
		if st.fired[nid] {
			continue
		}
		fire(nid)
	}

	for head := 0; head < len(queue); head++ {
		nid := queue[head]
		for pid := range t.entries[nid].Parents {
			if st.fired[pid] {
				continue
			}
			st.touch(pid)
			st.counts[pid]++
			if st.counts[pid] >= t.entries[pid].PropagateUpAtCount {
				fire(pid)
			}
		}
	}
	return out
}
