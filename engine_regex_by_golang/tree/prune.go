package tree

import (
	"fmt"
)

// pruneParentLinks drops the parent links of entries with more than
// threshold parents when every one of those parents still has another
// independent guard (PropagateUpAtCount > 1). Such a high-fan-out entry is
// redundant as a trigger source: each former parent's threshold drops by
// one and must now be satisfied by its remaining children. The entry keeps
// its own regexps and can still fire them directly.
//
// Runs exactly once, after all entries and parent links are populated and
// before the first query. Pruning trades propagation edges for false
// positives; it can never introduce a false negative.
func (b *Builder) pruneParentLinks(threshold int) error {
	for i := range b.entries {
		e := &b.entries[i]
		if len(e.Parents) <= threshold {
			continue
		}

		haveOtherGuard := true
		for pid := range e.Parents {
			if b.entries[pid].PropagateUpAtCount <= 1 {
				haveOtherGuard = false
				break
			}
		}
		if !haveOtherGuard {
			continue
		}

		for pid := range e.Parents {
			b.entries[pid].PropagateUpAtCount--
			if b.entries[pid].PropagateUpAtCount <= 0 {
				// An And node cannot end up with zero meaningful children;
				// this is a bug in the predicate generation upstream.
				return fmt.Errorf("PruneInvariantViolation: entry %d threshold reached %d",
					pid, b.entries[pid].PropagateUpAtCount)
			}
		}
		e.Parents = make(map[NodeId]int)
	}
	return nil
}
