package tree

import (
	"fmt"
	"sort"
	"strings"
)

// DebugString renders entries, parent links, thresholds and regexp
// ownership for diagnostics. Not part of the functional contract.
func (t *Tree) DebugString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "prefilter tree: %d entries, %d atoms, %d regexps\n",
		len(t.entries), len(t.atoms), t.regexpCount)

	atomText := make(map[NodeId]string, len(t.atomEntry))
	for aid, nid := range t.atomEntry {
		atomText[nid] = t.atoms[aid]
	}

	for i := range t.entries {
		e := &t.entries[i]
		parents := make([]NodeId, 0, len(e.Parents))
		for pid := range e.Parents {
			parents = append(parents, pid)
		}
		sort.Slice(parents, func(a, b int) bool { return parents[a] < parents[b] })

		fmt.Fprintf(&sb, "  [%d]", e.ID)
		if text, ok := atomText[e.ID]; ok {
			fmt.Fprintf(&sb, " atom %q", text)
		}
		fmt.Fprintf(&sb, " up_at=%d parents=%v", e.PropagateUpAtCount, parents)
		if len(e.Regexps) > 0 {
			fmt.Fprintf(&sb, " regexps=%v", e.Regexps)
		}
		sb.WriteByte('\n')
	}

	if len(t.unconditional) > 0 {
		fmt.Fprintf(&sb, "  unconditional regexps: %v\n", t.unconditional)
	}
	return sb.String()
}
